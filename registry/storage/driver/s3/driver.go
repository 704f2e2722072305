// Package s3 implements driver.StorageDriver backed by an S3-compatible
// object store, adapted from the teacher's registry/storage/driver/s3-aws
// driver: same aws-sdk-go v1 session/credentials construction, same
// awserr-based translation of "no such key" into a not-found error. The
// teacher's multipart-upload Writer machinery has no counterpart here —
// spec.md's StorageBackend only needs whole-object GetContent/PutContent
// plus a ranged Reader, since archives and index files are written once
// per publish rather than streamed incrementally.
package s3

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	driver "github.com/Palladinium/quartermaster/registry/storage/driver"
	"github.com/Palladinium/quartermaster/registry/storage/driver/factory"
)

const driverName = "s3"

// archiveKeyPrefix is prepended to any path that names an archive blob
// (one ending in ".crate"); index paths are stored unprefixed. This is
// the resolution of SPEC_FULL.md §4 Q1: one consistent scheme, applied
// identically on the read and write paths.
const archiveKeyPrefix = "crates/"

func init() {
	factory.Register(driverName, &s3DriverFactory{})
}

type s3DriverFactory struct{}

func (s3DriverFactory) Create(parameters map[string]interface{}) (driver.StorageDriver, error) {
	params, err := parseParameters(parameters)
	if err != nil {
		return nil, err
	}
	return New(params)
}

// Parameters configures the S3-compatible backend, mirroring the subset
// of the teacher's DriverParameters that spec.md §4.3 actually needs:
// explicit static credentials are optional, falling back to the AWS SDK's
// default provider chain (environment, shared config file, EC2/ECS
// instance metadata) when unset. Credential resolution itself is not
// part of the core spec; this wrapper only wires whichever credentials
// the SDK resolves into the S3 client.
type Parameters struct {
	Bucket         string
	Region         string
	RegionEndpoint string
	ForcePathStyle bool
	Secure         bool
	AccessKey      string
	SecretKey      string
	SessionToken   string
	SkipVerify     bool
}

func parseParameters(parameters map[string]interface{}) (Parameters, error) {
	bucket, ok := parameters["bucket"].(string)
	if !ok || bucket == "" {
		return Parameters{}, fmt.Errorf("s3 driver requires a non-empty bucket parameter")
	}
	region, _ := parameters["region"].(string)
	regionEndpoint, _ := parameters["regionendpoint"].(string)
	accessKey, _ := parameters["accesskey"].(string)
	secretKey, _ := parameters["secretkey"].(string)
	sessionToken, _ := parameters["sessiontoken"].(string)
	forcePathStyle, _ := parameters["forcepathstyle"].(bool)
	secure, secureOK := parameters["secure"].(bool)
	if !secureOK {
		secure = true
	}
	skipVerify, _ := parameters["skipverify"].(bool)

	return Parameters{
		Bucket:         bucket,
		Region:         region,
		RegionEndpoint: regionEndpoint,
		ForcePathStyle: forcePathStyle,
		Secure:         secure,
		AccessKey:      accessKey,
		SecretKey:      secretKey,
		SessionToken:   sessionToken,
		SkipVerify:     skipVerify,
	}, nil
}

// Driver is a driver.StorageDriver implementation backed by an S3 bucket.
type Driver struct {
	s3     *s3.S3
	bucket string
}

// New constructs a Driver from params, building an aws-sdk-go session the
// way the teacher's s3-aws driver does: static credentials when given,
// otherwise the SDK's default chain; a custom endpoint for S3-compatible
// stores (minio, etc); and an optional TLS-verification bypass for
// self-signed test endpoints.
func New(params Parameters) (*Driver, error) {
	awsConfig := aws.NewConfig()

	if params.AccessKey != "" && params.SecretKey != "" {
		awsConfig.WithCredentials(credentials.NewStaticCredentials(
			params.AccessKey,
			params.SecretKey,
			params.SessionToken,
		))
	}

	if params.RegionEndpoint != "" {
		awsConfig.WithEndpoint(params.RegionEndpoint)
	}
	awsConfig.WithS3ForcePathStyle(params.ForcePathStyle)
	awsConfig.WithRegion(params.Region)
	awsConfig.WithDisableSSL(!params.Secure)

	if params.SkipVerify {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		awsConfig.WithHTTPClient(&http.Client{Transport: transport})
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("s3: failed to create session: %w", err)
	}

	return &Driver{s3: s3.New(sess), bucket: params.Bucket}, nil
}

func (d *Driver) Name() string { return driverName }

func (d *Driver) key(path string) string {
	if strings.HasSuffix(path, ".crate") {
		return archiveKeyPrefix + path
	}
	return path
}

// GetContent retrieves the content stored at path as a []byte.
func (d *Driver) GetContent(ctx context.Context, path string) ([]byte, error) {
	reader, err := d.Reader(ctx, path, 0)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}

// PutContent stores content at path, replacing any existing object.
func (d *Driver) PutContent(ctx context.Context, path string, content []byte) error {
	_, err := d.s3.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(d.key(path)),
		Body:   bytes.NewReader(content),
	})
	return d.parseError(path, err)
}

// Reader returns a lazy byte stream for the object at path, starting at
// offset.
func (d *Driver) Reader(ctx context.Context, path string, offset int64) (io.ReadCloser, error) {
	resp, err := d.s3.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(d.key(path)),
		Range:  aws.String("bytes=" + strconv.FormatInt(offset, 10) + "-"),
	})
	if err != nil {
		if awsErr, ok := err.(awserr.Error); ok && awsErr.Code() == "InvalidRange" {
			return io.NopCloser(bytes.NewReader(nil)), nil
		}
		return nil, d.parseError(path, err)
	}
	return resp.Body, nil
}

// parseError translates S3's "no such key" into driver.PathNotFoundError
// (spec.md §4.3's NotFound-vs-IoError discipline); anything else is
// wrapped as a generic driver.Error.
func (d *Driver) parseError(path string, err error) error {
	if err == nil {
		return nil
	}
	if awsErr, ok := err.(awserr.Error); ok {
		if awsErr.Code() == "NoSuchKey" || awsErr.Code() == s3.ErrCodeNoSuchKey {
			return driver.PathNotFoundError{Path: path, DriverName: driverName}
		}
	}
	return driver.Error{DriverName: driverName, Enclosed: err}
}
