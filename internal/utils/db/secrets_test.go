package db

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardiaspro/api-estructuras/internal/config"
)

type fakeSecrets struct {
	secret string
	err    error
	pedido string
}

func (f *fakeSecrets) GetSecretValue(_ context.Context, in *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.pedido = aws.ToString(in.SecretId)
	if f.err != nil {
		return nil, f.err
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: aws.String(f.secret)}, nil
}

func usarSecrets(t *testing.T, f *fakeSecrets) {
	orig := newSecretsClient
	t.Cleanup(func() { newSecretsClient = orig })
	newSecretsClient = func(context.Context) (secretsAPI, error) { return f, nil }
}

func TestRetrieveCredentials_Env(t *testing.T) {
	usarSecrets(t, &fakeSecrets{err: errors.New("no debe llamarse")})
	u, p, err := retrieveCredentials(context.Background(), config.DatabaseOptions{Username: "app", Password: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, "app", u)
	assert.Equal(t, "s3cret", p)
}

func TestRetrieveCredentials_SecretsManager(t *testing.T) {
	f := &fakeSecrets{secret: `{"username":"rds_user","password":"rds_pass"}`}
	usarSecrets(t, f)

	u, p, err := retrieveCredentials(context.Background(), config.DatabaseOptions{SecretID: "prod/estructuras"})
	require.NoError(t, err)
	assert.Equal(t, "prod/estructuras", f.pedido)
	assert.Equal(t, "rds_user", u)
	assert.Equal(t, "rds_pass", p)
}

func TestRetrieveCredentials_Errores(t *testing.T) {
	_, _, err := retrieveCredentials(context.Background(), config.DatabaseOptions{})
	assert.Error(t, err)

	usarSecrets(t, &fakeSecrets{secret: "no-json"})
	_, _, err = retrieveCredentials(context.Background(), config.DatabaseOptions{SecretID: "x"})
	assert.ErrorContains(t, err, "mal formado")
}
