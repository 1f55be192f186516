package fallback

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	result Result[string]
	panics bool
	calls  int
}

func (s *stubProvider) call(_ context.Context) Result[string] {
	s.calls++
	if s.panics {
		panic("kaboom")
	}
	return s.result
}

func callStub(ctx context.Context, p *stubProvider) Result[string] {
	return p.call(ctx)
}

func TestDo_ReturnsFirstSuccessInOrder(t *testing.T) {
	t.Parallel()

	primary := &stubProvider{result: Fail[string](KindProviderFailure, errors.New("timeout"))}
	fb1 := &stubProvider{result: Fail[string](KindNotFound, nil)}
	fb2 := &stubProvider{result: OK("italian")}
	fb3 := &stubProvider{result: OK("never")}

	chain := NewChain(
		Named[*stubProvider]{Name: "primary", Provider: primary},
		Named[*stubProvider]{Name: "fb1", Provider: fb1},
		Named[*stubProvider]{Name: "fb2", Provider: fb2},
		Named[*stubProvider]{Name: "fb3", Provider: fb3},
	)

	out := Do(context.Background(), chain, "classify", callStub)

	assert.True(t, out.OK())
	assert.Equal(t, StatusSuccess, out.Status)
	assert.Equal(t, "italian", out.Value)
	assert.Equal(t, "fb2", out.Provider)
	assert.NoError(t, out.Err)

	require.Len(t, out.Attempts, 3)
	assert.Equal(t, "primary", out.Attempts[0].Provider)
	assert.Equal(t, KindProviderFailure, out.Attempts[0].Kind)
	assert.Equal(t, "fb1", out.Attempts[1].Provider)
	assert.Equal(t, KindNotFound, out.Attempts[1].Kind)
	assert.Equal(t, "fb2", out.Attempts[2].Provider)
	assert.Equal(t, KindNone, out.Attempts[2].Kind)

	for _, p := range []*stubProvider{primary, fb1, fb2} {
		assert.Equal(t, 1, p.calls)
	}
	assert.Zero(t, fb3.calls)
}

func TestDo_AllFail(t *testing.T) {
	t.Parallel()

	a := &stubProvider{result: Fail[string](KindUnavailable, errors.New("no key"))}
	b := &stubProvider{panics: true}
	c := &stubProvider{result: Result[string]{Kind: KindPartial}}

	chain := NewChain(
		Named[*stubProvider]{Name: "a", Provider: a},
		Named[*stubProvider]{Name: "b", Provider: b},
		Named[*stubProvider]{Name: "c", Provider: c},
	)

	var out Outcome[string]
	require.NotPanics(t, func() {
		out = Do(context.Background(), chain, "analyze", callStub)
	})

	assert.Equal(t, StatusFailed, out.Status)
	assert.False(t, out.OK())
	assert.Empty(t, out.Value)
	require.Len(t, out.Attempts, 3)
	assert.Equal(t, KindProviderFailure, out.Attempts[1].Kind)

	require.Error(t, out.Err)
	assert.ErrorIs(t, out.Err, ErrAllProvidersFailed)
	assert.Contains(t, out.Err.Error(), "a: no key")
	assert.Contains(t, out.Err.Error(), "b: provider b panicked: kaboom")
	assert.Contains(t, out.Err.Error(), "c: partial")

	var afe *AllFailedError
	require.True(t, errors.As(out.Err, &afe))
	assert.Len(t, afe.Attempts, 3)
}

func TestDo_CancelledContextStopsChain(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &stubProvider{result: OK("x")}
	out := Do(ctx, NewChain(Named[*stubProvider]{Name: "p", Provider: p}), "op", callStub)

	assert.Equal(t, StatusFailed, out.Status)
	assert.Zero(t, p.calls)
	assert.ErrorIs(t, out.Err, ErrAllProvidersFailed)
	assert.Contains(t, out.Err.Error(), context.Canceled.Error())
}

func TestDo_NilChain(t *testing.T) {
	t.Parallel()

	out := Do[*stubProvider, string](context.Background(), nil, "op", callStub)
	assert.Equal(t, StatusFailed, out.Status)
	assert.Error(t, out.Err)
}

func TestChain_Providers(t *testing.T) {
	t.Parallel()

	chain := NewChain(Named[int]{Name: "one", Provider: 1}, Named[int]{Name: "two", Provider: 2})
	assert.Equal(t, 2, chain.Len())

	ps := chain.Providers()
	ps[0].Name = "mutated"
	assert.Equal(t, "one", chain.Providers()[0].Name)
}

func TestFail_Defaults(t *testing.T) {
	t.Parallel()

	r := Fail[int](KindNone, nil)
	assert.Equal(t, KindProviderFailure, r.Kind)
	assert.Error(t, r.Err)
	assert.False(t, r.Succeeded())
	assert.True(t, OK(1).Succeeded())
}
