package cloudwriter

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	inputs []*s3.PutObjectInput
	bodies [][]byte
	err    error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, _ := io.ReadAll(in.Body)
	f.inputs = append(f.inputs, in)
	f.bodies = append(f.bodies, body)
	return &s3.PutObjectOutput{}, f.err
}

func TestS3WriterUploadsOnClose(t *testing.T) {
	api := &fakeS3{}
	w, err := NewS3WriterFactoryWithClient(api).NewWriter(context.Background(), "bucket", "extractions/canonical_orders/data.parquet")
	require.NoError(t, err)

	_, err = w.Write([]byte("PAR1"))
	require.NoError(t, err)
	_, err = w.Write([]byte("rest"))
	require.NoError(t, err)
	assert.Empty(t, api.inputs, "nothing is uploaded before Close")

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	require.Len(t, api.inputs, 1)
	assert.Equal(t, "bucket", aws.ToString(api.inputs[0].Bucket))
	assert.Equal(t, "extractions/canonical_orders/data.parquet", aws.ToString(api.inputs[0].Key))
	assert.Equal(t, "application/vnd.apache.parquet", aws.ToString(api.inputs[0].ContentType))
	assert.Equal(t, []byte("PAR1rest"), api.bodies[0])

	_, err = w.Write([]byte("late"))
	assert.Error(t, err)
}

func TestS3WriterReportsUploadFailure(t *testing.T) {
	api := &fakeS3{err: errors.New("access denied")}
	w, err := NewS3WriterFactoryWithClient(api).NewWriter(context.Background(), "bucket", "run.json")
	require.NoError(t, err)

	err = w.Close()
	assert.ErrorContains(t, err, "access denied")
	assert.Equal(t, "application/json", aws.ToString(api.inputs[0].ContentType))
}

func TestS3WriterNeedsBucket(t *testing.T) {
	_, err := NewS3WriterFactoryWithClient(&fakeS3{}).NewWriter(context.Background(), "", "x.json")
	assert.Error(t, err)
}
