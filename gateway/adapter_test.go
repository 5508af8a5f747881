package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeTradeGateway struct {
	codes     []int32
	lastReqID int
	calls     int
}

func (f *fakeTradeGateway) next() int32 {
	c := f.codes[f.calls]
	if f.calls < len(f.codes)-1 {
		f.calls++
	}
	return c
}

func (f *fakeTradeGateway) ReqAuthenticate() int32                                  { return 0 }
func (f *fakeTradeGateway) ReqUserLogin() int32                                      { return 0 }
func (f *fakeTradeGateway) ReqSettlementInfoConfirm() int32                          { return 0 }
func (f *fakeTradeGateway) ReqQryOrder() int32                                       { return 0 }
func (f *fakeTradeGateway) ReqQryTrade() int32                                       { return 0 }
func (f *fakeTradeGateway) ReqQryInstrument() int32                                  { return 0 }
func (f *fakeTradeGateway) ReqQryInvestorPosition() int32                            { return 0 }
func (f *fakeTradeGateway) ReqQryInvestorPositionDetail() int32                      { return 0 }
func (f *fakeTradeGateway) ReqQryTradingAccount() int32                              { return 0 }
func (f *fakeTradeGateway) ReqQryInstrumentMarginRate(string) int32                  { return 0 }
func (f *fakeTradeGateway) ReqQryInstrumentCommissionRate(string) int32              { return 0 }
func (f *fakeTradeGateway) ReqOrderInsert(OrderInsertRequest) int32                  { return 0 }
func (f *fakeTradeGateway) ReqOrderAction(OrderActionRequest) int32                  { return 0 }
func (f *fakeTradeGateway) ReqQryDepthMarketData(string) int32                       { return 0 }
func (f *fakeTradeGateway) LastRequestID() int                                       { return f.lastReqID }

func TestClassify(t *testing.T) {
	require.Equal(t, ResultOK, Classify(0))
	require.Equal(t, ResultRetry, Classify(-2))
	require.Equal(t, ResultRetry, Classify(-3))
	require.Equal(t, ResultFailed, Classify(-1))
	require.Equal(t, ResultFailed, Classify(-99))
}

func TestAdapterSubmitRetriesOnBackpressure(t *testing.T) {
	fake := &fakeTradeGateway{codes: []int32{-2, -3, 0}, lastReqID: 42}
	a := NewAdapter(fake, RetryConfig{Interval: time.Millisecond})

	attempts := 0
	id, err := a.Submit(context.Background(), func() int32 {
		attempts++
		return fake.next()
	})
	require.NoError(t, err)
	require.Equal(t, 42, id)
	require.Equal(t, 3, attempts)
}

func TestAdapterSubmitTerminalFailure(t *testing.T) {
	fake := &fakeTradeGateway{codes: []int32{-7}}
	a := NewAdapter(fake, RetryConfig{Interval: time.Millisecond})

	_, err := a.Submit(context.Background(), func() int32 { return fake.next() })
	require.Error(t, err)
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	require.Equal(t, -7, reqErr.Code)
}

func TestAdapterSubmitMaxAttempts(t *testing.T) {
	fake := &fakeTradeGateway{codes: []int32{-2, -2, -2}}
	a := NewAdapter(fake, RetryConfig{Interval: time.Millisecond, MaxAttempts: 2})

	_, err := a.Submit(context.Background(), func() int32 { return fake.next() })
	require.Error(t, err)
}

type fakeSink struct {
	kind ErrorKind
	msg  string
	hit  bool
}

func (s *fakeSink) OnError(kind ErrorKind, message string) {
	s.kind, s.msg, s.hit = kind, message, true
}

func TestClassifyErrorRoutesToSink(t *testing.T) {
	sink := &fakeSink{}
	wasError := ClassifyError(sink, ErrorLogin, &RspInfo{ErrorID: 3, ErrorMsg: "bad password"})
	require.True(t, wasError)
	require.True(t, sink.hit)
	require.Equal(t, "3:bad password", sink.msg)

	sink2 := &fakeSink{}
	wasError2 := ClassifyError(sink2, ErrorLogin, nil)
	require.False(t, wasError2)
	require.False(t, sink2.hit)
}
