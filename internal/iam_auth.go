package internal

import (
	"context"
	"fmt"

	"github.com/astro-otter/otter"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dsql/auth"
	"go.uber.org/zap"
)

// generateIAMTokenFn is swapped out in tests.
var generateIAMTokenFn = func(ctx context.Context, endpoint, region string, creds aws.CredentialsProvider) (string, error) {
	return auth.GenerateDbConnectAuthToken(ctx, endpoint, region, creds)
}

// loadAWSConfigFn is swapped out in tests.
var loadAWSConfigFn = func(ctx context.Context, region string) (aws.Config, error) {
	return config.LoadDefaultConfig(ctx, config.WithRegion(region))
}

// ResolveDatabasePassword returns the password to connect with. With UseIAM a
// DSQL auth token is generated from the default AWS credential chain; if that
// fails the configured password is used instead.
func ResolveDatabasePassword(ctx context.Context, db otter.DatabaseConfig) string {
	if !db.UseIAM {
		return db.Password
	}

	awsCfg, err := loadAWSConfigFn(ctx, db.Region)
	if err != nil {
		zap.S().Warnw("failed to load aws config; falling back to configured password", "err", err)
		return db.Password
	}

	endpoint := fmt.Sprintf("%s:%d", db.Host, db.Port)
	token, err := generateIAMTokenFn(ctx, endpoint, awsCfg.Region, awsCfg.Credentials)
	if err != nil || token == "" {
		zap.S().Warnw("failed to generate IAM auth token; falling back to configured password", "err", err)
		return db.Password
	}
	zap.S().Infow("generated IAM auth token for Postgres connection (dsql)", "endpoint", endpoint)
	return token
}
