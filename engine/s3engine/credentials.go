package s3engine

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/session"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/transfertypes"
)

// sessionExpiryWindow refreshes session credentials this long before they expire.
const sessionExpiryWindow = time.Minute

const sessionCredentialSource = "TransferSessionCredentials"

func loadConfig(ctx context.Context, cfg transfertypes.Configuration, secret *transfertypes.PlainSecret) (aws.Config, error) {
	provider, err := credentialsProvider(cfg, secret)
	if err != nil {
		return aws.Config{}, err
	}

	if secret == nil {
		if _, err := provider.Retrieve(ctx); err != nil {
			return aws.Config{}, errors.NewError("init", err).WithMessage("fetching session credentials")
		}
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(provider),
	)
	if err != nil {
		return aws.Config{}, errors.NewError("init", err).WithMessage("loading AWS configuration")
	}
	return awsCfg, nil
}

func credentialsProvider(
	cfg transfertypes.Configuration,
	secret *transfertypes.PlainSecret,
) (aws.CredentialsProvider, error) {
	if secret != nil {
		return credentials.NewStaticCredentialsProvider(secret.SecretID, secret.SecretKey, ""), nil
	}

	fetcher, err := session.NewFetcher(cfg.SessionCredentialURL)
	if err != nil {
		return nil, err //nolint:wrapcheck // already a transfer error
	}
	return aws.NewCredentialsCache(&sessionProvider{fetcher: fetcher}, func(o *aws.CredentialsCacheOptions) {
		o.ExpiryWindow = sessionExpiryWindow
	}), nil
}

// sessionProvider adapts a session credential fetcher to the SDK.
type sessionProvider struct {
	fetcher *session.Fetcher
}

// Retrieve fetches a fresh session credential.
func (p *sessionProvider) Retrieve(ctx context.Context) (aws.Credentials, error) {
	cred, err := p.fetcher.Fetch(ctx)
	if err != nil {
		return aws.Credentials{}, err //nolint:wrapcheck // already a transfer error
	}
	return aws.Credentials{
		AccessKeyID:     cred.TmpSecretID,
		SecretAccessKey: cred.TmpSecretKey,
		SessionToken:    cred.SessionToken,
		Source:          sessionCredentialSource,
		CanExpire:       !cred.ExpiredTime.IsZero(),
		Expires:         cred.ExpiredTime,
	}, nil
}
