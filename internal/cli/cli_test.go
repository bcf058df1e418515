package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olehkaliuzhnyi/snap-keyring/pkg/models"
)

const stateJSON = `{
  "accounts": {
    "b05d918a-b37c-497a-bb28-3d15c0d56b7a": {
      "account": {
        "id": "b05d918a-b37c-497a-bb28-3d15c0d56b7a",
        "address": "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
        "options": {},
        "methods": ["personal_sign"],
        "type": "eip155:eoa"
      },
      "snapId": "npm:@acme/snap"
    },
    "33c96b60-2237-488e-a7bb-233576f3d22f": {
      "account": {
        "id": "33c96b60-2237-488e-a7bb-233576f3d22f",
        "address": "0xfb6916095ca1df60bb79ce92ce3ea74c37c5d359",
        "options": {},
        "methods": [],
        "type": "eip155:eoa"
      },
      "snapId": "npm:@other/snap"
    }
  }
}`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func seed(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	db := filepath.Join(dir, "keyring.db")
	file := filepath.Join(dir, "state.json")
	require.NoError(t, os.WriteFile(file, []byte(stateJSON), 0o600))

	out, err := run(t, "--db", db, "state", "import", file)
	require.NoError(t, err)
	assert.Equal(t, "imported 2 account(s)\n", out)
	return db
}

func listAccounts(t *testing.T, db string, extra ...string) []models.InternalAccount {
	t.Helper()
	out, err := run(t, append([]string{"--db", db, "--format", "json", "accounts", "list"}, extra...)...)
	require.NoError(t, err)
	var accounts []models.InternalAccount
	require.NoError(t, json.Unmarshal([]byte(out), &accounts))
	return accounts
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, path := range [][]string{
		{"accounts", "list"},
		{"accounts", "remove"},
		{"snaps", "remove"},
		{"state", "export"},
		{"state", "import"},
		{"scope"},
	} {
		sub, _, err := cmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], sub.Name())
	}
}

func TestAccountsList(t *testing.T) {
	db := seed(t)

	accounts := listAccounts(t, db)
	require.Len(t, accounts, 2)
	for _, a := range accounts {
		assert.Equal(t, "Snap Keyring", a.Metadata.Keyring.Type)
		assert.Nil(t, a.Metadata.Snap)
	}

	acme := listAccounts(t, db, "--snap", "npm:@acme/snap")
	require.Len(t, acme, 1)
	assert.Equal(t, "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", acme[0].Address)

	out, err := run(t, "--db", db, "accounts", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "ADDRESS")
	assert.Contains(t, out, "npm:@other/snap")
}

func TestAccountsList_UpperCaseID(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "keyring.db")
	file := filepath.Join(dir, "state.json")
	state := `{"accounts":{"B05D918A-B37C-497A-BB28-3D15C0D56B7A":{"account":{
		"id":"B05D918A-B37C-497A-BB28-3D15C0D56B7A",
		"address":"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		"options":{},"methods":[],"type":"eip155:eoa"},"snapId":"npm:@acme/snap"}}}`
	require.NoError(t, os.WriteFile(file, []byte(state), 0o600))
	_, err := run(t, "--db", db, "state", "import", file)
	require.NoError(t, err)

	require.Len(t, listAccounts(t, db, "--snap", "npm:@acme/snap"), 1)

	out, err := run(t, "--db", db, "accounts", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "npm:@acme/snap")
}

func TestAccountsRemove(t *testing.T) {
	db := seed(t)

	out, err := run(t, "--db", db, "accounts", "remove", "0x5AAEB6053F3E94C9B9A09F33669435E7EF1BEAED")
	require.NoError(t, err, "snaps being unreachable does not block removal")
	assert.Contains(t, out, "removed")
	assert.Len(t, listAccounts(t, db), 1)

	_, err = run(t, "--db", db, "accounts", "remove", "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed")
	assert.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestSnapsRemove(t *testing.T) {
	db := seed(t)

	out, err := run(t, "--db", db, "snaps", "remove", "npm:@other/snap")
	require.NoError(t, err)
	assert.Equal(t, "removed 1 account(s) of npm:@other/snap\n", out)

	accounts := listAccounts(t, db)
	require.Len(t, accounts, 1)
	assert.Equal(t, "b05d918a-b37c-497a-bb28-3d15c0d56b7a", accounts[0].ID)
}

func TestStateExport(t *testing.T) {
	db := seed(t)

	out, err := run(t, "--db", db, "state", "export")
	require.NoError(t, err)
	assert.JSONEq(t, stateJSON, out)

	file := filepath.Join(t.TempDir(), "export.json")
	_, err = run(t, "--db", db, "state", "export", "-o", file)
	require.NoError(t, err)
	raw, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.JSONEq(t, stateJSON, string(raw))
}

func TestStateImport_Invalid(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "state.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"accounts":{"x":{"account":{"id":"y"},"snapId":"s"}}}`), 0o600))

	_, err := run(t, "--db", filepath.Join(dir, "keyring.db"), "state", "import", file)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestScope(t *testing.T) {
	out, err := run(t, "scope", "eip155", "1")
	require.NoError(t, err)
	assert.Equal(t, "eip155:1\n", out)

	out, err = run(t, "--format", "json", "scope", "bip122", "000000000019d6689c085ae165831e93")
	require.NoError(t, err)
	assert.JSONEq(t, `{"chainId":"bip122:000000000019d6689c085ae165831e93"}`, out)

	_, err = run(t, "scope", "EIP155", "1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestInvalidFormat(t *testing.T) {
	_, err := run(t, "--format", "xml", "scope", "eip155", "1")
	assert.ErrorContains(t, err, "invalid format")
}
