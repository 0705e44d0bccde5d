package s3

import (
	"testing"

	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

func TestApplyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "engine-failures/status/a.json", want: "engine-failures/status/a.json"},
		{name: "simple prefix", prefix: "bridge", key: "engine-failures/a.json", want: "bridge/engine-failures/a.json"},
		{name: "prefix slashes", prefix: "/bridge/", key: "/engine-failures/a.json", want: "bridge/engine-failures/a.json"},
		{name: "empty key", prefix: "bridge", key: "", want: "bridge"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := applyPrefix(tt.prefix, tt.key); got != tt.want {
				t.Fatalf("applyPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
			}
		})
	}
}

func TestApplyEncryption(t *testing.T) {
	input := &s3.PutObjectInput{}
	applyEncryption(input, "")
	if input.ServerSideEncryption != s3types.ServerSideEncryptionAes256 {
		t.Fatalf("expected AES256 without a KMS key, got %s", input.ServerSideEncryption)
	}

	input = &s3.PutObjectInput{}
	applyEncryption(input, "key-1")
	if input.ServerSideEncryption != s3types.ServerSideEncryptionAwsKms {
		t.Fatalf("expected aws:kms, got %s", input.ServerSideEncryption)
	}
	if input.SSEKMSKeyId == nil || *input.SSEKMSKeyId != "key-1" {
		t.Fatalf("expected SSEKMSKeyId to be set")
	}
}
