package source

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// fakeS3 serves objects from a map keyed by "bucket/key".
type fakeS3 struct {
	objects map[string]string
	lastKey string
}

func (f *fakeS3) GetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	key := aws.ToString(params.Bucket) + "/" + aws.ToString(params.Key)
	f.lastKey = key
	body, ok := f.objects[key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func TestS3Fetcher_Open(t *testing.T) {
	client := &fakeS3{objects: map[string]string{
		"datasets/users.csv": "id,age\n1,30\n",
	}}
	fetcher := NewS3Fetcher(client)

	body, err := fetcher.Open(context.Background(), "datasets", "users.csv")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer body.Close()

	if client.lastKey != "datasets/users.csv" {
		t.Errorf("requested %q; want datasets/users.csv", client.lastKey)
	}

	rows, err := ReadAll(NewCSV(body))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Record["age"] != "30" {
		t.Errorf("rows = %v; want the fetched CSV parsed", rows)
	}
}

func TestS3Fetcher_OpenMissing(t *testing.T) {
	fetcher := NewS3Fetcher(&fakeS3{objects: map[string]string{}})

	_, err := fetcher.Open(context.Background(), "datasets", "gone.csv")
	if err == nil {
		t.Fatal("Open() succeeded for a missing object")
	}
	if !strings.Contains(err.Error(), "s3://datasets/gone.csv") {
		t.Errorf("error %q should identify the object", err)
	}
}
