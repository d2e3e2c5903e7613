package runtime

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/mount"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePullStream(t *testing.T) {
	stream := strings.Join([]string{
		`{"status":"Pulling from nyunadmin/adapt","id":"february"}`,
		`{"status":"Pulling fs layer","progressDetail":{},"id":"a"}`,
		`{"status":"Pulling fs layer","progressDetail":{},"id":"b"}`,
		`{"status":"Downloading","progressDetail":{"current":100,"total":1000},"id":"a"}`,
		`{"status":"Downloading","progressDetail":{"current":50,"total":500},"id":"b"}`,
		`{"status":"Extracting","progressDetail":{"current":10,"total":1000},"id":"a"}`,
		`{"status":"Download complete","progressDetail":{},"id":"a"}`,
		`{"status":"Download complete","progressDetail":{},"id":"b"}`,
		`{"status":"Status: Downloaded newer image for nyunadmin/adapt:february"}`,
	}, "\n")

	var updates []PullProgress
	err := decodePullStream(strings.NewReader(stream), func(p PullProgress) {
		updates = append(updates, p)
	})
	require.NoError(t, err)
	require.Len(t, updates, 4)
	assert.Equal(t, PullProgress{Current: 100, Total: 1000}, updates[0])
	assert.Equal(t, PullProgress{Current: 150, Total: 1500}, updates[1])
	assert.Equal(t, PullProgress{Current: 1050, Total: 1500}, updates[2])
	last := updates[len(updates)-1]
	assert.Equal(t, PullProgress{Current: 1500, Total: 1500}, last)
}

func TestDecodePullStreamError(t *testing.T) {
	tests := []struct {
		name         string
		message      string
		accessDenied bool
	}{
		{"manifest unknown", "manifest for nyunadmin/adapt:nope not found: manifest unknown", true},
		{"unauthorized", "pull access denied for nyunadmin/private, repository does not exist", true},
		{"network", "net/http: TLS handshake timeout", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stream := fmt.Sprintf(`{"status":"Pulling fs layer","id":"a"}`+"\n"+`{"errorDetail":{"message":%q},"error":%q}`, tt.message, tt.message)
			err := decodePullStream(strings.NewReader(stream), nil)
			require.Error(t, err)
			assert.Equal(t, tt.accessDenied, errors.Is(err, ErrAccessDenied))
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestClassify(t *testing.T) {
	assert.NoError(t, classify(nil))
	assert.ErrorIs(t, classify(fmt.Errorf("no such image: %w", cerrdefs.ErrNotFound)), ErrAccessDenied)
	assert.ErrorIs(t, classify(cerrdefs.ErrUnauthenticated), ErrAccessDenied)
	assert.ErrorIs(t, classify(cerrdefs.ErrPermissionDenied), ErrAccessDenied)

	plain := errors.New("boom")
	assert.Equal(t, plain, classify(plain))
}

func TestHostConfig(t *testing.T) {
	spec := ContainerSpec{
		Name:  "nyun-adapt-abc",
		Image: "nyunadmin/adapt:february",
		Mounts: []Mount{
			{Source: "/ws", Target: "/user_data"},
			{Source: "/data", Target: "/custom_data/adapt", ReadOnly: true},
		},
		GPUs:       true,
		AutoRemove: true,
	}

	hc := hostConfig(spec)
	assert.True(t, hc.AutoRemove)
	require.Len(t, hc.Mounts, 2)
	assert.Equal(t, mount.TypeBind, hc.Mounts[0].Type)
	assert.False(t, hc.Mounts[0].ReadOnly)
	assert.True(t, hc.Mounts[1].ReadOnly)
	assert.Equal(t, "/custom_data/adapt", hc.Mounts[1].Target)

	require.Len(t, hc.Resources.DeviceRequests, 1)
	assert.Equal(t, -1, hc.Resources.DeviceRequests[0].Count)
	assert.Equal(t, [][]string{{"gpu"}}, hc.Resources.DeviceRequests[0].Capabilities)

	spec.GPUs = false
	assert.Empty(t, hostConfig(spec).Resources.DeviceRequests)
}

func TestContainerConfig(t *testing.T) {
	cfg := containerConfig(ContainerSpec{
		Image:      "nyunadmin/adapt:february",
		Cmd:        []string{"python", "main.py"},
		Env:        []string{"A=1"},
		WorkingDir: "/workspace",
	})
	assert.Equal(t, "nyunadmin/adapt:february", cfg.Image)
	assert.Equal(t, []string{"python", "main.py"}, []string(cfg.Cmd))
	assert.Equal(t, []string{"A=1"}, cfg.Env)
	assert.Equal(t, "/workspace", cfg.WorkingDir)
}
