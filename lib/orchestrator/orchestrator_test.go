package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/nyunai/nyun/lib/extensions"
	"github.com/nyunai/nyun/lib/images"
	"github.com/nyunai/nyun/lib/instances"
	"github.com/nyunai/nyun/lib/runtime/runtimetest"
	"github.com/nyunai/nyun/lib/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, kinds ...extensions.Kind) (*Orchestrator, *runtimetest.Fake, *workspace.Spec, string) {
	t.Helper()
	ws := filepath.Join(t.TempDir(), "ws")
	spec, _, err := workspace.NewStore(nil).LoadOrInit(context.Background(), ws, filepath.Join(ws, "custom_data"), kinds, false)
	require.NoError(t, err)

	rt := runtimetest.New()
	orch := New(extensions.NewCatalog(images.NewRegistry()), instances.NewManager(rt, nil, nil))
	return orch, rt, spec, ws
}

func writeRecipe(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRunAutoAWQ(t *testing.T) {
	orch, rt, spec, ws := setup(t, extensions.All)
	script := writeRecipe(t, ws, "job.yaml", "algorithm: AutoAWQ\nmodel: llama\n")

	h, err := orch.Run(context.Background(), script, spec)
	require.NoError(t, err)
	assert.Equal(t, extensions.TextGeneration, h.Kind)
	assert.Equal(t, "nyunadmin/nyun_kompress:autoawq", h.Image.String())

	require.Len(t, rt.Runs, 1)
	mounts := rt.Runs[0].Mounts
	require.Len(t, mounts, 4)

	targets := make([]string, len(mounts))
	for i, m := range mounts {
		targets[i] = m.Target
	}
	assert.Equal(t, []string{
		"/user_data",
		"/custom_data/text-generation",
		"/scripts/recipe.yaml",
		"/workspace",
	}, targets)
	assert.Equal(t, script, mounts[2].Source)
}

func TestRunJSONRecipe(t *testing.T) {
	orch, rt, spec, ws := setup(t, extensions.Vision)
	script := writeRecipe(t, ws, "job.json", `{"algorithm": "MMRazor", "epochs": 3}`)

	h, err := orch.Run(context.Background(), script, spec)
	require.NoError(t, err)
	assert.Equal(t, extensions.Vision, h.Kind)
	assert.Equal(t, "nyunadmin/nyun_kompress:mmrazor", h.Image.String())
	assert.Equal(t, "/scripts/recipe.json", rt.Runs[0].Mounts[2].Target)
}

func TestRunUnsupportedFile(t *testing.T) {
	orch, rt, spec, ws := setup(t, extensions.All)

	for _, name := range []string{"job.txt", "job.py", "job"} {
		t.Run(name, func(t *testing.T) {
			script := writeRecipe(t, ws, name, "algorithm: AutoAWQ\n")
			_, err := orch.Run(context.Background(), script, spec)
			require.ErrorIs(t, err, ErrUnsupportedFile)
		})
	}

	// Extension is checked before the file is read
	_, err := orch.Run(context.Background(), filepath.Join(ws, "missing.txt"), spec)
	require.ErrorIs(t, err, ErrUnsupportedFile)

	assert.Empty(t, rt.Runs)
	assert.Empty(t, rt.Pulled)
}

func TestRunAlgorithmErrors(t *testing.T) {
	orch, rt, spec, ws := setup(t, extensions.All)

	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"missing", "model: llama\n", ErrMissingAlgorithm},
		{"empty", "algorithm: \"\"\n", ErrMissingAlgorithm},
		{"unknown", "algorithm: GPTQ\n", extensions.ErrUnknownAlgorithm},
		{"wrong case", "algorithm: autoawq\n", extensions.ErrUnknownAlgorithm},
		{"not a mapping", "- a\n- b\n", ErrInvalidRecipe},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			script := writeRecipe(t, ws, tt.name+".yaml", tt.content)
			_, err := orch.Run(context.Background(), script, spec)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Empty(t, rt.Runs)
}

func TestRunAlgorithmNotOwnedByEnabledExtension(t *testing.T) {
	// init ./ws ./data -e adapt, then run ./ws/job.yaml with AutoAWQ
	orch, rt, spec, ws := setup(t, extensions.Adapt)
	script := writeRecipe(t, ws, "job.yaml", "algorithm: AutoAWQ\n")

	_, err := orch.Run(context.Background(), script, spec)
	require.ErrorIs(t, err, extensions.ErrNoImageForAlgorithm)
	assert.Contains(t, err.Error(), "AutoAWQ")
	assert.Empty(t, rt.Runs)
}

func TestResolve(t *testing.T) {
	orch, _, spec, ws := setup(t, extensions.TextGeneration)

	tests := []struct {
		algorithm string
		tag       string
	}{
		{"AutoAWQ", "autoawq"},
		{"FLAP", "flap"},
		{"MLCLLM", "mlcllm"},
		{"TensorRTLLM", "tensorrtllm"},
		{"ExLlama", "exllama"},
	}

	for _, tt := range tests {
		t.Run(tt.algorithm, func(t *testing.T) {
			script := writeRecipe(t, ws, tt.algorithm+".yml", "algorithm: "+tt.algorithm+"\n")
			res, err := orch.Resolve(script, spec)
			require.NoError(t, err)
			assert.Equal(t, extensions.TextGeneration, res.Kind)
			assert.Equal(t, tt.tag, res.Image.Tag())
		})
	}
}

func TestCheckRecipeFile(t *testing.T) {
	for _, name := range []string{"job.yaml", "job.YML", "job.json"} {
		assert.NoError(t, CheckRecipeFile(filepath.Join("/nowhere", name)), name)
	}
	for _, name := range []string{"job.txt", "job", "job.yaml.bak"} {
		assert.ErrorIs(t, CheckRecipeFile(filepath.Join("/nowhere", name)), ErrUnsupportedFile, name)
	}
}
