package aws

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSecrets struct{ mock.Mock }

func (m *mockSecrets) GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	args := m.Called(ctx, *in.SecretId)
	if out := args.Get(0); out != nil {
		return out.(*secretsmanager.GetSecretValueOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestSecretsClientCaches(t *testing.T) {
	api := new(mockSecrets)
	api.On("GetSecretValue", mock.Anything, "storefront/JWT_SECRET").
		Return(&secretsmanager.GetSecretValueOutput{SecretString: sdkaws.String("s3cret")}, nil).Once()
	api.On("GetSecretValue", mock.Anything, "storefront/MISSING").
		Return(nil, errors.New("ResourceNotFoundException")).Once()

	c := newSecretsClient(api, "")
	for range 2 {
		v, err := c.GetSecret(context.Background(), "JWT_SECRET")
		require.NoError(t, err)
		assert.Equal(t, "s3cret", v)
	}

	_, err := c.GetSecret(context.Background(), "MISSING")
	assert.ErrorContains(t, err, "storefront/MISSING")
	api.AssertExpectations(t)
}

func TestSecretsClientPrefix(t *testing.T) {
	api := new(mockSecrets)
	api.On("GetSecretValue", mock.Anything, "staging/storefront/DATABASE_URL").
		Return(&secretsmanager.GetSecretValueOutput{}, nil).Once()

	c := newSecretsClient(api, "staging/storefront")
	assert.Equal(t, "staging/storefront/DATABASE_URL", c.SecretID("DATABASE_URL"))

	_, err := c.GetSecret(context.Background(), "DATABASE_URL")
	assert.ErrorContains(t, err, "has no string value")
	api.AssertExpectations(t)
}

type fakeSNS struct{ input *sns.PublishInput }

func (f *fakeSNS) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = in
	return &sns.PublishOutput{}, nil
}

func TestSNSPublishEvent(t *testing.T) {
	api := &fakeSNS{}
	c := &SNSClient{client: api}

	err := c.PublishEvent(context.Background(), "arn:aws:sns:us-east-1:000000000000:verify", "user.verification_requested",
		map[string]string{"email": "a@b.c"})
	require.NoError(t, err)

	assert.Equal(t, "user.verification_requested", *api.input.MessageAttributes["event_type"].StringValue)
	var body map[string]string
	require.NoError(t, json.Unmarshal([]byte(*api.input.Message), &body))
	assert.Equal(t, "a@b.c", body["email"])

	assert.Error(t, c.PublishEvent(context.Background(), "", "x", nil))
}

type fakeS3 struct {
	key  string
	body string
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.key = *in.Key
	b, _ := io.ReadAll(in.Body)
	f.body = string(b)
	return &s3.PutObjectOutput{}, nil
}

func TestS3ArchiverArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "upload.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n"), 0o644))

	api := &fakeS3{}
	a := &S3Archiver{client: api, bucket: "imports", prefix: "category"}
	key, err := a.Archive(context.Background(), "job.csv", path)
	require.NoError(t, err)
	assert.Equal(t, "category/job.csv", key)
	assert.Equal(t, "a,b\n", api.body)

	_, err = a.Archive(context.Background(), "x.csv", filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

type countingCloudWatch struct{ calls int }

func (c *countingCloudWatch) PutMetricData(context.Context, *cloudwatch.PutMetricDataInput, ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	c.calls++
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func TestMetricsClientEnabled(t *testing.T) {
	api := &countingCloudWatch{}

	disabled := &MetricsClient{client: api, namespace: "Storefront"}
	require.NoError(t, disabled.RecordCount(context.Background(), MetricImportsCompleted, nil))
	assert.Equal(t, 0, api.calls)

	enabled := &MetricsClient{client: api, namespace: "Storefront", enabled: true}
	require.NoError(t, enabled.RecordValue(context.Background(), MetricImportRowsAdded, 3, map[string]string{"Entity": "category"}))
	assert.Equal(t, 1, api.calls)

	var nilClient *MetricsClient
	assert.False(t, nilClient.IsEnabled())
}

type fakeLogs struct {
	cloudWatchLogsAPI
	tokens []*string
	msgs   []string
}

func (f *fakeLogs) PutLogEvents(_ context.Context, in *cloudwatchlogs.PutLogEventsInput, _ ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutLogEventsOutput, error) {
	f.tokens = append(f.tokens, in.SequenceToken)
	f.msgs = append(f.msgs, *in.LogEvents[0].Message)
	return &cloudwatchlogs.PutLogEventsOutput{NextSequenceToken: sdkaws.String("next")}, nil
}

func TestCloudWatchLogsWrite(t *testing.T) {
	api := &fakeLogs{}
	c := &CloudWatchLogsClient{client: api, logGroupName: "g", logStreamName: "s"}

	n, err := c.Write([]byte(`{"msg":"one"}`))
	require.NoError(t, err)
	assert.Equal(t, 13, n)
	_, _ = c.Write([]byte(`{"msg":"two"}`))

	require.Len(t, api.tokens, 2)
	assert.Nil(t, api.tokens[0])
	assert.Equal(t, "next", *api.tokens[1])
	assert.Equal(t, `{"msg":"two"}`, api.msgs[1])
}
