package objectstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURI(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Location
		wantErr bool
	}{
		{in: "s3://udacity-dend/log_data", want: Location{Scheme: "s3", Bucket: "udacity-dend", Key: "log_data"}},
		{in: "s3://udacity-dend", want: Location{Scheme: "s3", Bucket: "udacity-dend"}},
		{in: "file:///data/song_data", want: Location{Scheme: "file", Key: "/data/song_data"}},
		{in: "testdata/log_data", want: Location{Scheme: "file", Key: "testdata/log_data"}},
		{in: "s3:///nobucket", wantErr: true},
		{in: "gs://bucket/x", wantErr: true},
		{in: "  ", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseURI(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidURI, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLocalList(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "log_data", "2018", "11", "2018-11-12-events.json"), `{"a":1}`)
	writeFile(t, filepath.Join(root, "log_data", "2018", "11", "2018-11-13-events.json"), `{"a":2}`)
	writeFile(t, filepath.Join(root, "log_data", "2018", "12", "2018-12-01-events.json"), `{"a":3}`)
	writeFile(t, filepath.Join(root, "log_data", "empty.json"), "")

	ctx := context.Background()
	store := NewLocal()

	t.Run("directory", func(t *testing.T) {
		objs, err := store.List(ctx, filepath.Join(root, "log_data"))
		require.NoError(t, err)
		require.Len(t, objs, 3, "empty files are skipped")
		assert.True(t, strings.HasSuffix(objs[0].Key, "2018-11-12-events.json"))
		assert.EqualValues(t, 7, objs[0].Size)
	})

	t.Run("path prefix", func(t *testing.T) {
		objs, err := store.List(ctx, filepath.Join(root, "log_data", "2018", "11", "2018-11-13"))
		require.NoError(t, err)
		require.Len(t, objs, 1)
		assert.True(t, strings.HasSuffix(objs[0].Key, "2018-11-13-events.json"))
	})

	t.Run("single file via file URI", func(t *testing.T) {
		p := filepath.Join(root, "log_data", "2018", "12", "2018-12-01-events.json")
		objs, err := store.List(ctx, "file://"+filepath.ToSlash(p))
		require.NoError(t, err)
		require.Len(t, objs, 1)
	})

	t.Run("no match", func(t *testing.T) {
		_, err := store.List(ctx, filepath.Join(root, "song_data"))
		assert.ErrorIs(t, err, ErrNoObjects)

		_, err = store.List(ctx, filepath.Join(root, "missing", "deeper", "prefix"))
		assert.ErrorIs(t, err, ErrNoObjects)
	})
}

func TestLocalOpen(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	p := filepath.Join(root, "log_json_path.json")
	writeFile(t, p, `{"jsonpaths":["$['artist']"]}`)

	b, err := ReadAll(context.Background(), NewLocal(), p)
	require.NoError(t, err)
	assert.Contains(t, string(b), "jsonpaths")

	_, err = NewLocal().Open(context.Background(), filepath.Join(root, "nope.json"))
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

// fakeS3 serves a fixed bucket, two keys per page.
type fakeS3 struct {
	objects map[string]string
	keys    []string
	lists   int
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.lists++
	var matched []string
	for _, k := range f.keys {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			matched = append(matched, k)
		}
	}
	start := 0
	if in.ContinuationToken != nil {
		for i, k := range matched {
			if k == *in.ContinuationToken {
				start = i
			}
		}
	}
	end := min(start+2, len(matched))

	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(end < len(matched))}
	for _, k := range matched[start:end] {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k), Size: aws.Int64(int64(len(f.objects[k])))})
	}
	if end < len(matched) {
		out.NextContinuationToken = aws.String(matched[end])
	}
	return out, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	body, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func newFakeS3() *fakeS3 {
	f := &fakeS3{objects: map[string]string{
		"song_data/A/A/A/TRAAAAK128F9318786.json": `{"song_id":"SOBLFFE12AF72AA5BA"}`,
		"song_data/A/A/B/TRAABJL12903CDCF1A.json": `{"song_id":"SOFNOQK12AB01840FC"}`,
		"song_data/A/B/":                          "",
		"song_data/A/B/C/TRABCEI128F424C983.json": `{"song_id":"SOQLGFP12A58A7800E"}`,
		"log_data/2018/11/2018-11-01-events.json": `{"ts":1}`,
	}}
	for k := range f.objects {
		f.keys = append(f.keys, k)
	}
	// S3 lists keys in lexicographic order.
	sort.Strings(f.keys)
	return f
}

func TestS3ListPaginates(t *testing.T) {
	t.Parallel()

	fake := newFakeS3()
	store := &S3{client: fake}

	objs, err := store.List(context.Background(), "s3://udacity-dend/song_data")
	require.NoError(t, err)
	require.Len(t, objs, 3, "folder markers are skipped")
	assert.Equal(t, "s3://udacity-dend/song_data/A/A/A/TRAAAAK128F9318786.json", objs[0].URI)
	assert.Greater(t, fake.lists, 1, "listing should follow continuation tokens")

	_, err = store.List(context.Background(), "s3://udacity-dend/nothing")
	assert.ErrorIs(t, err, ErrNoObjects)
}

func TestS3Open(t *testing.T) {
	t.Parallel()

	store := &S3{client: newFakeS3()}
	b, err := ReadAll(context.Background(), store, "s3://udacity-dend/log_data/2018/11/2018-11-01-events.json")
	require.NoError(t, err)
	assert.Equal(t, `{"ts":1}`, string(b))

	_, err = store.Open(context.Background(), "s3://udacity-dend/missing.json")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestMuxRoutes(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	p := filepath.Join(root, "a.json")
	writeFile(t, p, `{}`)

	mux := NewMuxWithS3(&S3{client: newFakeS3()})

	objs, err := mux.List(context.Background(), p)
	require.NoError(t, err)
	assert.Len(t, objs, 1)

	objs, err = mux.List(context.Background(), "s3://udacity-dend/log_data")
	require.NoError(t, err)
	assert.Len(t, objs, 1)
}
