package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbparse/backend/internal/domain"
)

func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()

	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"parse", "serve", "cookies"} {
		assert.True(t, names[want], "missing subcommand %q", want)
	}
	assert.NotNil(t, cmd.PersistentFlags().Lookup("verbose"))
}

func TestNewParseCmdFlags(t *testing.T) {
	t.Parallel()

	cmd := NewParseCmd()

	flagsWithShort := map[string]string{
		"limit":     "n",
		"max-pages": "p",
		"format":    "f",
	}
	for flag, shorthand := range flagsWithShort {
		f := cmd.Flags().Lookup(flag)
		require.NotNil(t, f, flag)
		assert.Equal(t, shorthand, f.Shorthand, flag)
	}
	assert.NotNil(t, cmd.Flags().Lookup("store"))
	assert.NotNil(t, cmd.Flags().Lookup("no-html"))
}

func TestParseCmd_RejectsUnknownFormat(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetArgs([]string{"parse", "foo", "--format", "xml"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()

	assert.ErrorContains(t, err, "unsupported format")
}

func TestParseCmd_RequiresQuery(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetArgs([]string{"parse"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	assert.Error(t, cmd.Execute())
}

func TestWriteOutput(t *testing.T) {
	t.Parallel()

	idx := 3
	products := []domain.Product{{NmID: 7, Name: "Кружка", PriceAPI: 100, PriceFinal: 90, CardIndex: &idx}}

	var js bytes.Buffer
	require.NoError(t, writeOutput(&js, "json", products))
	var decoded []domain.Product
	require.NoError(t, json.Unmarshal(js.Bytes(), &decoded))
	assert.Equal(t, products, decoded)
	assert.Contains(t, js.String(), "Кружка")

	var yml bytes.Buffer
	require.NoError(t, writeOutput(&yml, "yaml", products))
	assert.Contains(t, yml.String(), "- data_card_index: 3")
	assert.Contains(t, yml.String(), "  nm_id: 7")
	assert.Contains(t, yml.String(), "  price_wallet: null")
}

func TestCookiesNormalizeCmd(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "raw.json")
	dst := filepath.Join(dir, "cookies.json")
	raw := `[
		{"name":"WILDAUTHNEW_V3","value":"abc","domain":".wildberries.ru","path":"/","secure":true,"httpOnly":true},
		{"name":"_ga","value":"x","domain":".google.com"},
		{"name":"empty","value":null,"domain":".wildberries.ru"}
	]`
	require.NoError(t, os.WriteFile(src, []byte(raw), 0o600))

	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetArgs([]string{"cookies", "normalize", src, dst})
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "wrote 1 cookies")

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	var entries []map[string]any
	require.NoError(t, json.Unmarshal(data, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "WILDAUTHNEW_V3", entries[0]["name"])
	assert.Equal(t, true, entries[0]["httpOnly"])
}

func TestCookiesNormalizeCmd_MissingFile(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetArgs([]string{"cookies", "normalize", filepath.Join(t.TempDir(), "nope.json"), "out.json"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	assert.Error(t, cmd.Execute())
}
