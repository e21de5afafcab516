/*
Copyright (C) 2024  Carl-Philip Hänsch

    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU General Public License as published by
    the Free Software Foundation, either version 3 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU General Public License
    along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package checkpoint

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Backend stores snapshot blobs as single objects under Bucket/Prefix.
// Unlike FileBackend it keeps no local backup copy: S3 overwrite semantics
// already give every PutObject atomic visibility.
type S3Backend struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Endpoint        string
	Bucket          string
	Prefix          string
	ForcePathStyle  bool

	mu     sync.Mutex
	client *s3.Client
	opened bool
}

func (b *S3Backend) ensureOpen() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.opened {
		return nil
	}

	ctx := context.Background()
	var opts []func(*config.LoadOptions) error
	if b.Region != "" {
		opts = append(opts, config.WithRegion(b.Region))
	}
	if b.AccessKeyID != "" && b.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(b.AccessKeyID, b.SecretAccessKey, "")))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return fmt.Errorf("checkpoint: load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if b.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) { o.BaseEndpoint = aws.String(b.Endpoint) })
	}
	if b.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) { o.UsePathStyle = true })
	}

	b.client = s3.NewFromConfig(cfg, s3Opts...)
	b.opened = true
	return nil
}

func (b *S3Backend) key(name string) string {
	pfx := strings.TrimSuffix(b.Prefix, "/")
	if pfx == "" {
		return name + ".snap"
	}
	return pfx + "/" + name + ".snap"
}

func (b *S3Backend) WriteSnapshot(name string, data []byte) error {
	if err := b.ensureOpen(); err != nil {
		return err
	}
	_, err := b.client.PutObject(context.Background(), &s3.PutObjectInput{
		Bucket: aws.String(b.Bucket),
		Key:    aws.String(b.key(name)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("checkpoint: s3 put %s: %w", name, err)
	}
	return nil
}

func (b *S3Backend) ReadSnapshot(name string) ([]byte, error) {
	if err := b.ensureOpen(); err != nil {
		return nil, err
	}
	resp, err := b.client.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(b.Bucket),
		Key:    aws.String(b.key(name)),
	})
	if err != nil {
		return nil, fmt.Errorf("checkpoint: s3 get %s: %w", name, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: s3 read body %s: %w", name, err)
	}
	return data, nil
}
