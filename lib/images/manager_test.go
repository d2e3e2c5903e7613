package images

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/nyunai/nyun/lib/runtime"
	"github.com/nyunai/nyun/lib/runtime/runtimetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubInspector struct {
	errs map[string]error
}

func (s *stubInspector) Inspect(_ context.Context, ref *Ref) (string, error) {
	if err := s.errs[ref.String()]; err != nil {
		return "", err
	}
	return "sha256:0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef", nil
}

func TestPullAllPartialFailure(t *testing.T) {
	reg := NewRegistry()
	refs := []*Ref{
		reg.MustIntern("nyunadmin/nyun_kompress", "autoawq"),
		reg.MustIntern("nyunadmin/nyun_kompress", "missing"),
		reg.MustIntern("nyunadmin/adapt", "february"),
	}

	rt := runtimetest.New()
	rt.PullErrors["nyunadmin/nyun_kompress:missing"] = fmt.Errorf("%w: manifest unknown", runtime.ErrAccessDenied)

	mgr := NewManager(rt, nil, Config{MaxConcurrentPulls: 2}, nil)
	results := mgr.PullAll(context.Background(), refs)

	require.Len(t, results, 3)
	for i, r := range results {
		assert.Same(t, refs[i], r.Image, "results are in request order")
		assert.Equal(t, i+1, r.Ordinal)
	}

	assert.Equal(t, StatusPulled, results[0].Status)
	assert.Equal(t, StatusFailed, results[1].Status)
	assert.Equal(t, FailureAccessDenied, results[1].Failure)
	assert.Contains(t, results[1].Message(), SupportContact)
	assert.Equal(t, StatusPulled, results[2].Status)

	assert.ElementsMatch(t, []string{"nyunadmin/nyun_kompress:autoawq", "nyunadmin/adapt:february"}, rt.Pulled)
	assert.Len(t, Failed(results), 1)
}

func TestPullAllSkipsLocalImages(t *testing.T) {
	reg := NewRegistry()
	local := reg.MustIntern("nyunadmin/adapt", "february")
	remote := reg.MustIntern("nyunadmin/nyun_kompress", "mmrazor")

	rt := runtimetest.New()
	rt.Local[local.String()] = true

	mgr := NewManager(rt, nil, Config{}, nil)
	results := mgr.PullAll(context.Background(), []*Ref{local, remote, local})

	require.Len(t, results, 2, "duplicate identities collapse")
	assert.Equal(t, StatusSkipped, results[0].Status)
	assert.Equal(t, StatusPulled, results[1].Status)
	assert.Equal(t, int64(1024), results[1].Bytes)
	assert.Equal(t, []string{remote.String()}, rt.Pulled)
}

func TestPullAllTransientFailure(t *testing.T) {
	reg := NewRegistry()
	ref := reg.MustIntern("nyunadmin/adapt", "february")

	rt := runtimetest.New()
	rt.PullErrors[ref.String()] = errors.New("connection reset by peer")

	results := NewManager(rt, nil, Config{}, nil).PullAll(context.Background(), []*Ref{ref})
	require.Len(t, results, 1)
	assert.Equal(t, StatusFailed, results[0].Status)
	assert.Equal(t, FailureTransient, results[0].Failure)
	assert.True(t, strings.Contains(results[0].Message(), "try again"))
}

func TestPullAllInspectorDenied(t *testing.T) {
	reg := NewRegistry()
	denied := reg.MustIntern("nyunadmin/private", "v1")
	ok := reg.MustIntern("nyunadmin/adapt", "february")

	inspector := &stubInspector{errs: map[string]error{
		denied.String(): fmt.Errorf("%w: 401", runtime.ErrAccessDenied),
	}}
	rt := runtimetest.New()

	results := NewManager(rt, inspector, Config{}, nil).PullAll(context.Background(), []*Ref{denied, ok})
	require.Len(t, results, 2)
	assert.Equal(t, FailureAccessDenied, results[0].Failure)
	assert.Equal(t, StatusPulled, results[1].Status)

	// The engine is never asked for an image the registry refused
	assert.Equal(t, []string{ok.String()}, rt.Pulled)
}

func TestPullAllProgress(t *testing.T) {
	reg := NewRegistry()
	refs := []*Ref{
		reg.MustIntern("nyunadmin/nyun_kompress", "flap"),
		reg.MustIntern("nyunadmin/nyun_kompress", "exllama"),
	}

	mgr := NewManager(runtimetest.New(), nil, Config{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := mgr.Tracker().Subscribe(ctx)
	require.NoError(t, err)

	mgr.PullAll(context.Background(), refs)
	cancel()

	terminal := make(map[*Ref]Status)
	pending := 0
	for update := range ch {
		assert.Equal(t, 2, update.Total)
		if update.Status.Terminal() {
			terminal[update.Image] = update.Status
		} else {
			pending++
		}
	}

	assert.Equal(t, map[*Ref]Status{refs[0]: StatusPulled, refs[1]: StatusPulled}, terminal)
	assert.GreaterOrEqual(t, pending, 2)
}

func TestRemoveAll(t *testing.T) {
	reg := NewRegistry()
	a := reg.MustIntern("nyunadmin/adapt", "february")
	b := reg.MustIntern("nyunadmin/nyun_kompress", "mmrazor")

	rt := runtimetest.New()
	rt.Local[a.String()] = true

	err := NewManager(rt, nil, Config{}, nil).RemoveAll(context.Background(), []*Ref{a, b, a})
	require.NoError(t, err)
	assert.Equal(t, []string{a.String(), b.String()}, rt.Removed)
}
