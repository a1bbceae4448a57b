package e2e_harness

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/astro-otter/otter"
	"github.com/astro-otter/otter/internal"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// seedTransients holds one document per line: two complete transients and one
// whose photometry is missing a required field.
const seedTransients = `{"name":{"default_name":"AT2018hyz","alias":["ASASSN-18zj"]},"sources":[{"name":"Short et al.","bibcode":"2020MNRAS.498..246S","alias":"1"}],"ra":[{"value":"10:06:50.87","source":"1"}],"dec":[{"value":"+01:41:34.08","source":"1"}],"z":[{"value":0.0457,"source":"1"}],"photometry":{"V":[{"time":58450.1,"luminosity":1.5e43,"source":"1"}]}}
{"name":{"default_name":"AT2019dsg"},"sources":[{"name":"Stein et al.","bibcode":"2021NatAs...5..510S","alias":"1"}],"ra":[{"value":"20:57:02.97","source":"1"}],"dec":[{"value":"+14:12:15.86","source":"1"}],"z":[{"value":0.0512,"source":"1"}],"discovery_date":[{"value":"2019-04-09","source":"1"}]}
{"name":{"default_name":"AT2020opy"},"sources":[{"name":"Hinkle et al.","bibcode":"2021MNRAS.500.1673H","alias":"1"}],"ra":[{"value":"15:56:25.72","source":"1"}],"dec":[{"value":"+23:22:21.09","source":"1"}],"photometry":{"g":[{"time":59080.3,"source":"1"}]}}
`

// SeedRecords returns the raw seed documents.
func SeedRecords() ([]otter.Record, error) {
	return internal.ReadRecords(strings.NewReader(seedTransients))
}

// CreateTransientTable creates the transient table and its indexes.
func CreateTransientTable(ctx context.Context, db *sql.DB, table string) error {
	stmts, err := internal.TransientTableDDL(table)
	if err != nil {
		return err
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	return nil
}

// ListObjectKeys returns the keys under prefix in bucket.
func ListObjectKeys(ctx context.Context, client *s3.Client, bucket, prefix string) ([]string, error) {
	out, err := client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}
	keys := make([]string, 0, len(out.Contents))
	for _, obj := range out.Contents {
		keys = append(keys, aws.ToString(obj.Key))
	}
	return keys, nil
}
