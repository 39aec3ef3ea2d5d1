package mapfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zoobzio/mold"
)

const sample = `
mappings:
  user:
    key_transform: snake_to_camel
    keys:
      - from: user_id
        to: id
    fields:
      email:
        transform: trim|lower
      fullName:
        computed: true
        expr: first + " " + last
      role:
        default: member
      password:
        ignore: true
  strict_user:
    strict: true
    include_unmapped: true
`

type user struct {
	ID        int    `json:"id"`
	Email     string `json:"email"`
	FullName  string `json:"fullName"`
	Role      string `json:"role"`
	Password  string `json:"password"`
	CreatedBy string `json:"createdBy"`
}

func writeSample(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mappings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	f, err := Load(writeSample(t, sample))
	require.NoError(t, err)

	assert.Equal(t, []string{"strict_user", "user"}, f.Names())

	def := f.Mappings["user"]
	assert.Equal(t, "snake_to_camel", def.KeyTransform)
	require.Len(t, def.Keys, 1)
	assert.Equal(t, KeyDefinition{From: "user_id", To: "id"}, def.Keys[0])
	assert.True(t, def.Fields["fullName"].Computed)
	assert.Equal(t, "member", def.Fields["role"].Default)

	strict := f.Mappings["strict_user"]
	require.NotNil(t, strict.Strict)
	assert.True(t, *strict.Strict)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadUnknownKey(t *testing.T) {
	_, err := Load(writeSample(t, "mappings:\n  user:\n    stric: true\n"))
	assert.Error(t, err)
}

func TestMapping(t *testing.T) {
	f, err := Load(writeSample(t, sample))
	require.NoError(t, err)

	m, err := f.Mapping("user")
	require.NoError(t, err)

	got, err := mold.TransformWith[user](map[string]any{
		"user_id":    "12",
		"email":      "  Ann@Example.COM ",
		"first":      "Ann",
		"last":       "Lee",
		"password":   "hunter2",
		"created_by": "admin",
	}, m)
	require.NoError(t, err)

	assert.Equal(t, user{
		ID:        12,
		Email:     "ann@example.com",
		FullName:  "Ann Lee",
		Role:      "member",
		CreatedBy: "admin",
	}, got)
}

func TestMappingErrors(t *testing.T) {
	f, err := FromMap(map[string]any{
		"mappings": map[string]any{
			"bad_key":   map[string]any{"key_transform": "kebab"},
			"bad_field": map[string]any{"fields": map[string]any{"x": map[string]any{"transform": "trim|rot13"}}},
		},
	})
	require.NoError(t, err)

	_, err = f.Mapping("missing")
	assert.ErrorIs(t, err, ErrUnknownMapping)

	_, err = f.Mapping("bad_key")
	assert.ErrorIs(t, err, ErrUnknownKeyTransform)

	_, err = f.Mapping("bad_field")
	assert.ErrorIs(t, err, ErrUnknownTransform)
}

func TestBind(t *testing.T) {
	f, err := Load(writeSample(t, sample))
	require.NoError(t, err)

	e := mold.NewEngine()
	require.NoError(t, Bind[user](e, f, "user"))

	var got user
	require.NoError(t, e.Into(&got, map[string]any{"user_id": 3}, nil))
	assert.Equal(t, 3, got.ID)
	assert.Equal(t, "member", got.Role)

	assert.ErrorIs(t, Bind[user](e, f, "nope"), ErrUnknownMapping)
}
