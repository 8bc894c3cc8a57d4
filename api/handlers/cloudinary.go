package handlers

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

// Documents handles upload-signature requests for the two document
// attachments. The documents themselves never pass through this service;
// the client uploads directly to Cloudinary and submits the returned
// handle with the application.
type Documents struct {
	UploadPreset string
	APISecret    string
}

// GenerateSignature generates a signature for Cloudinary uploads
func (d Documents) GenerateSignature(w http.ResponseWriter, r *http.Request) {
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)

	// Create the signature
	h := hmac.New(sha1.New, []byte(d.APISecret))
	h.Write([]byte("timestamp=" + timestamp + "&upload_preset=" + d.UploadPreset))
	signature := hex.EncodeToString(h.Sum(nil))

	// Respond with the timestamp and signature
	response := map[string]string{
		"timestamp": timestamp,
		"signature": signature,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
