package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"
)

func TestVerifySignature(t *testing.T) {
	t.Parallel()

	body := []byte(`{"id":1}`)
	mac := hmac.New(sha256.New, []byte("secret"))
	mac.Write(body)
	valid := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	if !VerifySignature("secret", body, valid) {
		t.Fatal("valid signature rejected")
	}
	if !VerifySignature("secret", body, " "+valid+" ") {
		t.Fatal("surrounding whitespace must be tolerated")
	}
	if VerifySignature("secret", body, "bogus") {
		t.Fatal("invalid signature accepted")
	}
	if VerifySignature("other-secret", body, valid) {
		t.Fatal("signature from wrong secret accepted")
	}
	if VerifySignature("secret", []byte(`{"id":2}`), valid) {
		t.Fatal("signature over different body accepted")
	}
}
