package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/output"
	"github.com/df07/go-pathtracer/pkg/renderer"
)

// RenderRequest represents a render request from the client
type RenderRequest struct {
	sceneParams
	SamplesPerPixel int           // 0 keeps the scene's
	MaxDepth        int           // 0 keeps the scene's
	Format          output.Format // Response image format
	Thumb           int           // Maximum width of the returned image, 0 for full size
}

// handleRender renders the requested scene to completion and returns the
// encoded image. A client disconnect cancels the render.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	req, err := parseRenderRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	sceneObj, err := s.createScene(req.sceneParams)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	sampling := renderer.SamplingConfigFor(sceneObj)
	if req.SamplesPerPixel > 0 {
		sampling.SamplesPerPixel = req.SamplesPerPixel
	}
	if req.MaxDepth > 0 {
		sampling.MaxDepth = req.MaxDepth
	}
	sampling.Seed = req.Seed

	camera := geometry.NewCamera(sceneObj.CameraConfig)
	if camera.Width()*camera.Height() > 800*600 && sampling.SamplesPerPixel > 100 {
		s.logger.Printf("Render warning: Large image with high samples may render slowly\n")
	}

	raytracer := renderer.NewRaytracer(sceneObj, camera, sampling, s.logger)
	img, stats, err := raytracer.Render(r.Context())
	if err != nil {
		if errors.Is(err, context.Canceled) {
			s.logger.Printf("Render of %s cancelled by client\n", sceneObj.Name)
			return
		}
		writeError(w, http.StatusInternalServerError, "Render error: "+err.Error())
		return
	}

	img = output.Resize(img, req.Thumb)

	var buf bytes.Buffer
	if err := output.Encode(&buf, img, req.Format); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", req.Format.ContentType())
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("X-Render-Duration-Ms", strconv.FormatInt(stats.Duration.Milliseconds(), 10))
	w.Header().Set("X-Render-Samples", strconv.Itoa(stats.TotalSamples))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// parseRenderRequest parses request parameters
func parseRenderRequest(r *http.Request) (*RenderRequest, error) {
	values := r.URL.Query()
	params, err := parseSceneParams(values)
	if err != nil {
		return nil, err
	}

	req := &RenderRequest{sceneParams: params, Format: output.FormatPNG}
	if req.SamplesPerPixel, err = parseIntParam(values, "spp", 0, 1, maxSamples); err != nil {
		return nil, err
	}
	if req.MaxDepth, err = parseIntParam(values, "depth", 0, 1, maxDepth); err != nil {
		return nil, err
	}
	if req.Thumb, err = parseIntParam(values, "thumb", 0, 1, maxWidth); err != nil {
		return nil, err
	}
	if format := values.Get("format"); format != "" {
		if req.Format, err = output.ParseFormat(format); err != nil {
			return nil, err
		}
	}

	return req, nil
}
