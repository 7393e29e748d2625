package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/claimrisk/internal/model"
	"github.com/ppiankov/claimrisk/internal/pipeline"
)

func isolateConfig(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, k := range []string{"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY", "MISTRAL_API_KEY", "OLLAMA_BASE_URL"} {
		t.Setenv(k, "")
	}
	return home
}

func TestLoadConfig_Defaults(t *testing.T) {
	isolateConfig(t)

	c, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultConfig(), c)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	isolateConfig(t)
	path := filepath.Join(t.TempDir(), "claimrisk.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
interview:
  timeout: 45s
verdict:
  high_threshold: 80
llm:
  provider: anthropic
`), 0o600))

	t.Setenv("CLAIMRISK_CONSISTENCY_DATE_TOLERANCE_DAYS", "14")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")

	c, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, c.Interview.Timeout)
	assert.Equal(t, 80.0, c.Verdict.HighThreshold)
	assert.Equal(t, 40.0, c.Verdict.MediumThreshold)
	assert.Equal(t, 14, c.Consistency.DateToleranceDays)
	assert.Equal(t, "anthropic", c.LLM.Provider)
	assert.Equal(t, "sk-ant-test", c.LLM.APIKey)
	assert.Equal(t, path, configFileUsed)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	isolateConfig(t)
	_, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestApplyProviderEnv_ExplicitKeyWins(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "from-env")
	c := model.DefaultConfig()
	c.LLM.Provider = "openai"
	c.LLM.APIKey = "from-config"
	applyProviderEnv(c)
	assert.Equal(t, "from-config", c.LLM.APIKey)
}

func TestInitLogger(t *testing.T) {
	assert.NoError(t, InitLogger(model.LogConfig{Level: "debug", Format: "console"}))
	assert.NoError(t, InitLogger(model.LogConfig{Level: "info", Format: "json"}))
	assert.NoError(t, InitLogger(model.LogConfig{}))
	assert.Error(t, InitLogger(model.LogConfig{Level: "loud"}))
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "", redact(""))
	assert.Equal(t, "****", redact("short"))
	assert.Equal(t, "sk-a****wxyz", redact("sk-abcdefghijklmnopqrstuvwxyz"))
}

func TestParseDocFlags(t *testing.T) {
	refs, err := parseDocFlags([]string{"invoice=bill.pdf", "medical_report = discharge.pdf", "scan.png", "receipt=r.txt"})
	require.NoError(t, err)
	assert.Equal(t, []model.DocumentRef{
		{Path: "bill.pdf", DeclaredType: model.DeclaredInvoice},
		{Path: "discharge.pdf", DeclaredType: model.DeclaredMedicalReport},
		{Path: "scan.png", DeclaredType: model.DeclaredOther},
		{Path: "r.txt", DeclaredType: model.DeclaredOther},
	}, refs)

	_, err = parseDocFlags([]string{"invoice="})
	assert.Error(t, err)
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"CLM-1":          "CLM-1",
		"claims/2024:01": "claims_2024_01",
		"a b":            "a-b",
		"..":             "claim",
		"":               "claim",
	}
	for in, want := range tests {
		assert.Equal(t, want, sanitizeFilename(in), "input %q", in)
	}
	assert.Len(t, sanitizeFilename(strings.Repeat("x", 300)), 100)
}

func TestCollectTrainingDocuments(t *testing.T) {
	dir := t.TempDir()
	for _, rel := range []string{"invoice/a.txt", "medical_report/b.txt", "misc/c.txt", "d.txt", ".hidden"} {
		path := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	}

	refs, err := collectTrainingDocuments(dir)
	require.NoError(t, err)
	require.Len(t, refs, 4)

	byName := map[string]model.DeclaredType{}
	for _, r := range refs {
		byName[filepath.Base(r.Path)] = r.DeclaredType
	}
	assert.Equal(t, model.DeclaredInvoice, byName["a.txt"])
	assert.Equal(t, model.DeclaredMedicalReport, byName["b.txt"])
	assert.Equal(t, model.DeclaredOther, byName["c.txt"])
	assert.Equal(t, model.DeclaredOther, byName["d.txt"])

	_, err = collectTrainingDocuments(t.TempDir())
	assert.Error(t, err)
}

func newCLIPipeline(t *testing.T) *pipeline.Pipeline {
	t.Helper()
	p, err := pipeline.NewPipeline(model.DefaultConfig(),
		pipeline.WithCompleter(nil), pipeline.WithClassifier(nil), pipeline.WithOCREngine(nil), pipeline.WithCache(nil))
	require.NoError(t, err)
	return p
}

func TestConverse(t *testing.T) {
	p := newCLIPipeline(t)
	in := strings.NewReader("I fell down the stairs.\n\nIt happened at home.\nMy neighbour drove me.\n")
	var out bytes.Buffer

	err := converse(context.Background(), p, "CLM-1", model.ClaimContext{ClaimType: "Emergency"}, in, &out)
	require.NoError(t, err)

	session, ok := p.Session("CLM-1")
	require.True(t, ok)
	assert.True(t, session.IsComplete())
	assert.Equal(t, "It happened at home.", session.Turns[1].Answer)
	assert.Contains(t, out.String(), "Please type an answer.")
	assert.Equal(t, 4, strings.Count(out.String(), "Q: "), "the open question is repeated after an empty answer")
}

func TestConverse_InputClosedEarly(t *testing.T) {
	p := newCLIPipeline(t)
	err := converse(context.Background(), p, "CLM-1", model.ClaimContext{ClaimType: "Surgery"}, strings.NewReader("only one\n"), &bytes.Buffer{})
	assert.Error(t, err)
}

func TestAssess_RequiresDocuments(t *testing.T) {
	_, err := assess(context.Background(), newCLIPipeline(t), "CLM-1", nil)
	assert.ErrorIs(t, err, model.ErrNoDocuments)
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "v.json")
	require.NoError(t, writeJSON(path, &model.FraudVerdict{ClaimID: "CLM-1", RiskLevel: model.RiskLow}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"claim_id": "CLM-1"`)
	assert.Contains(t, string(data), `"risk_level": "low"`)
}
