package media_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"lodge/infras/s3/mocks"
	"lodge/shared/media"
)

func fileHeaders(t *testing.T, names ...string) []*multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for _, name := range names {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename="%s"`, name))
		header.Set("Content-Type", "image/png")

		part, err := writer.CreatePart(header)
		require.NoError(t, err)

		_, err = part.Write([]byte("png-bytes"))
		require.NoError(t, err)
	}

	require.NoError(t, writer.Close())

	form, err := multipart.NewReader(body, writer.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)

	return form.File["images"]
}

func TestUpload(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockS3(ctrl)
	ctx := context.Background()

	store.EXPECT().Upload(ctx, "room", gomock.Any(), "image/png", gomock.Any()).Return("https://cdn/room/a.png", nil)
	store.EXPECT().Upload(ctx, "room", gomock.Any(), "image/png", gomock.Any()).Return("https://cdn/room/b.png", nil)

	urls, err := media.Upload(ctx, store, "room", fileHeaders(t, "a.PNG", "b.png"))
	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn/room/a.png", "https://cdn/room/b.png"}, urls)
}

func TestUpload_RollsBack(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockS3(ctrl)
	ctx := context.Background()

	gomock.InOrder(
		store.EXPECT().Upload(ctx, "venue", gomock.Any(), "image/png", gomock.Any()).Return("https://cdn/venue/a.png", nil),
		store.EXPECT().Upload(ctx, "venue", gomock.Any(), "image/png", gomock.Any()).Return("", errors.New("bucket gone")),
		store.EXPECT().Delete(ctx, "https://cdn/venue/a.png").Return(nil),
	)

	urls, err := media.Upload(ctx, store, "venue", fileHeaders(t, "a.png", "b.png"))
	require.Error(t, err)
	assert.Nil(t, urls)
}

func TestFileName(t *testing.T) {
	name := media.FileName("Pool View.JPG")

	assert.True(t, strings.HasSuffix(name, ".jpg"))
	assert.Len(t, name, 36+len(".jpg"))
	assert.NotEqual(t, name, media.FileName("Pool View.JPG"))
}

func TestWithout(t *testing.T) {
	kept, removed := media.Without([]string{"a", "b", "c"}, []string{"b", "x"})

	assert.Equal(t, []string{"a", "c"}, kept)
	assert.Equal(t, []string{"b"}, removed)
}
