package internal

import (
	"context"
	"errors"
	"testing"

	"github.com/astro-otter/otter"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

func stubAWS(t *testing.T, token string, tokenErr error) *string {
	t.Helper()
	origToken, origLoad := generateIAMTokenFn, loadAWSConfigFn
	t.Cleanup(func() {
		generateIAMTokenFn = origToken
		loadAWSConfigFn = origLoad
	})

	var endpoint string
	loadAWSConfigFn = func(ctx context.Context, region string) (aws.Config, error) {
		return aws.Config{
			Region:      region,
			Credentials: credentials.NewStaticCredentialsProvider("AKID", "SECRET", ""),
		}, nil
	}
	generateIAMTokenFn = func(ctx context.Context, ep, region string, creds aws.CredentialsProvider) (string, error) {
		endpoint = ep
		return token, tokenErr
	}
	return &endpoint
}

func TestResolveDatabasePassword_WithoutIAM(t *testing.T) {
	stubAWS(t, "token", nil)
	db := otter.DatabaseConfig{Password: "plain"}
	if got := ResolveDatabasePassword(context.Background(), db); got != "plain" {
		t.Fatalf("expected plain password, got %s", got)
	}
}

func TestResolveDatabasePassword_Token(t *testing.T) {
	endpoint := stubAWS(t, "iam-token", nil)
	db := otter.DatabaseConfig{Host: "abc.dsql.us-east-1.on.aws", Port: 5432, Password: "envpass", UseIAM: true, Region: "us-east-1"}

	if got := ResolveDatabasePassword(context.Background(), db); got != "iam-token" {
		t.Fatalf("expected iam token, got %s", got)
	}
	if *endpoint != "abc.dsql.us-east-1.on.aws:5432" {
		t.Fatalf("unexpected endpoint %s", *endpoint)
	}
}

func TestResolveDatabasePassword_FallsBack(t *testing.T) {
	db := otter.DatabaseConfig{Host: "localhost", Port: 5432, Password: "envpass", UseIAM: true, Region: "us-east-1"}

	stubAWS(t, "", nil)
	if got := ResolveDatabasePassword(context.Background(), db); got != "envpass" {
		t.Fatalf("expected fallback to envpass on empty token, got %s", got)
	}

	stubAWS(t, "", errors.New("no credentials"))
	if got := ResolveDatabasePassword(context.Background(), db); got != "envpass" {
		t.Fatalf("expected fallback to envpass on error, got %s", got)
	}

	stubAWS(t, "unused", nil)
	loadAWSConfigFn = func(ctx context.Context, region string) (aws.Config, error) {
		return aws.Config{}, errors.New("bad profile")
	}
	if got := ResolveDatabasePassword(context.Background(), db); got != "envpass" {
		t.Fatalf("expected fallback to envpass on config error, got %s", got)
	}
}
