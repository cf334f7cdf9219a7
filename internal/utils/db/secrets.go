package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"github.com/guardiaspro/api-estructuras/internal/config"
)

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type secretsAPI interface {
	GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// newSecretsClient se reemplaza en tests.
var newSecretsClient = func(ctx context.Context) (secretsAPI, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}
	return secretsmanager.NewFromConfig(cfg), nil
}

// retrieveCredentials usa DB_USERNAME/DB_PASSWORD si vienen; si no, el secreto DB_SECRET_ID.
func retrieveCredentials(ctx context.Context, opts config.DatabaseOptions) (string, string, error) {
	if opts.Username != "" && opts.Password != "" {
		return opts.Username, opts.Password, nil
	}
	if opts.SecretID == "" {
		return "", "", fmt.Errorf("sin credenciales de base: defina DB_USERNAME/DB_PASSWORD o DB_SECRET_ID")
	}

	client, err := newSecretsClient(ctx)
	if err != nil {
		return "", "", err
	}
	result, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId:     aws.String(opts.SecretID),
		VersionStage: aws.String("AWSCURRENT"),
	})
	if err != nil {
		return "", "", fmt.Errorf("leer secreto %s: %w", opts.SecretID, err)
	}
	if result.SecretString == nil {
		return "", "", fmt.Errorf("secreto %s sin SecretString", opts.SecretID)
	}

	var secret Credentials
	if err := json.Unmarshal([]byte(*result.SecretString), &secret); err != nil {
		return "", "", fmt.Errorf("secreto %s mal formado: %w", opts.SecretID, err)
	}
	return secret.Username, secret.Password, nil
}
