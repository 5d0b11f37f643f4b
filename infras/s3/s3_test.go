package s3_test

import (
	"testing"

	"lodge/config"
	"lodge/infras/otel/mocks"
	"lodge/infras/s3"

	"github.com/stretchr/testify/assert"
)

func TestObjectKey(t *testing.T) {
	cfg := &config.Config{}
	cfg.External.S3.APIEndpoint = "https://storage.lodge.test"
	cfg.External.S3.BucketName = "lodge"
	cfg.External.S3.PublicDomain = "https://cdn.lodge.test/"

	svc := s3.New(cfg, mocks.NewOtel())

	assert.Equal(t, "room/a.png", svc.ObjectKey("https://cdn.lodge.test/room/a.png"))
	assert.Equal(t, "venue/b.jpg", svc.ObjectKey("https://storage.lodge.test/lodge/venue/b.jpg"))
	assert.Empty(t, svc.ObjectKey("https://elsewhere.test/room/a.png"))
	assert.Empty(t, svc.ObjectKey("https://cdn.lodge.test/"))
}
