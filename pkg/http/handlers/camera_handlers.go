package handlers

import (
	"io"
	"net/http"

	"github.com/pkg/errors"
	goji "goji.io"
	"goji.io/pat"
)

// RegisterCameraHandlers registers the handler proxying the enclosure camera
// stream.
func RegisterCameraHandlers(mux *goji.Mux, streamer Streamer, cameraURL string) {
	mux.Handle(pat.Get("/camera/stream"), Handler{env: &Env{streamer: streamer, cameraURL: cameraURL}, handler: cameraStreamHandler})
}

// cameraStreamHandler proxies the camera's MJPEG stream byte for byte. The
// stream is unbounded so we copy until either side disconnects; we never
// buffer or re-encode frames.
func cameraStreamHandler(env *Env, w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	resp, err := env.streamer.GetStream(ctx, env.cameraURL)
	if err != nil {
		return &HTTPError{
			Code: http.StatusInternalServerError,
			Err:  errors.Wrap(err, "failed to connect to camera stream"),
		}
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "multipart/x-mixed-replace"
	}

	w.Header().Set("Content-Type", contentType)

	// errors here just mean a side hung up mid-stream
	_, err = io.Copy(w, resp.Body)
	if err != nil {
		return nil
	}

	return nil
}
