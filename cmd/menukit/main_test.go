package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/menukit/pkg/razorpay"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestPlans(t *testing.T) {
	t.Parallel()

	t.Run("table", func(t *testing.T) {
		t.Parallel()

		out, err := run(t, "", "plans")
		require.NoError(t, err)
		assert.Contains(t, out, "trial (trial)")
		assert.Contains(t, out, "999.00 INR")
		assert.Contains(t, out, "plan_growth_live")
		assert.Contains(t, out, "unlimited")
	})

	t.Run("test mode json", func(t *testing.T) {
		t.Parallel()

		out, err := run(t, "", "plans", "--json", "--test-mode")
		require.NoError(t, err)

		var plans []struct {
			ID string `json:"id"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &plans))
		require.Len(t, plans, 4)
		assert.Equal(t, "trial", plans[0].ID)
	})

	t.Run("file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "plans.yaml")
		require.NoError(t, os.WriteFile(path, []byte("plans:\n  - id: solo\n    trial: true\n    scan_limit: 50\n"), 0o600))

		out, err := run(t, "", "plans", "--file", path)
		require.NoError(t, err)
		assert.Contains(t, out, "solo (trial)")
		assert.Contains(t, out, "free")
		assert.NotContains(t, out, "growth")
	})

	t.Run("invalid file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "plans.yaml")
		require.NoError(t, os.WriteFile(path, []byte("plans:\n  - id: a\n  - id: a\n"), 0o600))

		_, err := run(t, "", "plans", "--file", path)
		require.Error(t, err)
	})
}

func TestSignWebhook(t *testing.T) {
	t.Parallel()

	body := `{"event":"subscription.activated"}`

	t.Run("stdin", func(t *testing.T) {
		t.Parallel()

		out, err := run(t, body, "sign", "webhook", "--secret", "whsec")
		require.NoError(t, err)
		assert.NoError(t, razorpay.VerifyWebhook("whsec", []byte(body), strings.TrimSpace(out)))
	})

	t.Run("file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "event.json")
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

		out, err := run(t, "", "sign", "webhook", "--secret", "whsec", path)
		require.NoError(t, err)
		assert.NoError(t, razorpay.VerifyWebhook("whsec", []byte(body), strings.TrimSpace(out)))
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := run(t, "", "sign", "webhook", "--secret", "whsec", filepath.Join(t.TempDir(), "nope.json"))
		require.Error(t, err)
	})
}

func TestSignPayment(t *testing.T) {
	t.Parallel()

	out, err := run(t, "", "sign", "payment", "--secret", "key_secret", "--payment-id", "pay_1", "--subscription-id", "sub_1")
	require.NoError(t, err)
	assert.NoError(t, razorpay.VerifyPayment("key_secret", "pay_1", "sub_1", strings.TrimSpace(out)))

	_, err = run(t, "", "sign", "payment", "--secret", "key_secret", "--payment-id", "pay_1")
	require.Error(t, err)
}

func TestMigrate_Memory(t *testing.T) {
	t.Parallel()

	out, err := run(t, "", "migrate", "--driver", "memory")
	require.NoError(t, err)
	assert.Equal(t, "memory store is up to date\n", out)
}

func TestEnvFileMissing(t *testing.T) {
	t.Parallel()

	_, err := run(t, "", "--env-file", filepath.Join(t.TempDir(), "missing.env"), "plans")
	require.Error(t, err)
}
