package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/sessionchat/internal/app"
	"github.com/vovakirdan/sessionchat/internal/auth"
	"github.com/vovakirdan/sessionchat/internal/config"
)

func TestTokenCommand(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("SESSIONCHAT_JWT_SECRET", "cli-secret")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"token", "42", "--username", "alice", "--config", filepath.Join(dir, "config.yaml")})
	require.NoError(t, cmd.Execute())

	cfg := config.Default()
	cfg.JWTSecret = "cli-secret"
	claims, err := auth.ValidateToken(app.JWTConfig(&cfg), strings.TrimSpace(out.String()))
	require.NoError(t, err)
	require.Equal(t, "42", claims.Identity())
	require.Equal(t, "alice", claims.Username)
}

func TestTokenCommandRequiresSecret(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"token", "42", "--config", filepath.Join(dir, "config.yaml")})
	require.ErrorContains(t, cmd.Execute(), "jwt_secret")
}

func TestServeRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"serve", "--store", "postgres", "--config", filepath.Join(dir, "config.yaml")})
	require.ErrorContains(t, cmd.Execute(), "invalid config")
}
