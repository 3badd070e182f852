package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/AbdelrahmanSuliman/Graduation-Project/core"
	"github.com/AbdelrahmanSuliman/Graduation-Project/feature"
	"github.com/AbdelrahmanSuliman/Graduation-Project/recommend"
)

func invalidInput(msg string, err error) error {
	return core.WrapDomainError(core.ModuleService, core.ErrorCodeInvalidInput, msg, err)
}

type upload struct {
	data        []byte
	contentType string
	filename    string
}

// readUpload parses the multipart body and returns the "file" part, which must sniff as an image.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, invalidInput(fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit), nil)
		}
		return nil, invalidInput("expected a multipart/form-data body", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, invalidInput("file is required", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, invalidInput("could not read file", err)
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, invalidInput("File must be an image.", nil)
	}
	return &upload{data: data, contentType: mt.String(), filename: header.Filename}, nil
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	up, err := s.readUpload(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	features, err := feature.ParseGeometricFeatures(r.FormValue("features"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	// No point asking the classifier when nothing can be ranked.
	if !s.recommender.Available() {
		writeError(w, r, core.ErrModelUnavailable)
		return
	}

	label, err := s.classifier.Classify(r.Context(), up.data, up.contentType)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp, err := s.recommender.Recommend(r.Context(), recommend.Request{ShapeLabel: label, Features: features})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type ClassifyResponse struct {
	Filename  string `json:"filename"`
	FaceShape string `json:"face_shape"`
	Message   string `json:"message"`
}

func (s *Server) handleClassifyFace(w http.ResponseWriter, r *http.Request) {
	up, err := s.readUpload(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	label, err := s.classifier.Classify(r.Context(), up.data, up.contentType)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ClassifyResponse{
		Filename:  up.filename,
		FaceShape: label,
		Message:   fmt.Sprintf("Successfully detected %s face.", label),
	})
}

type HealthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	Classifier  string `json:"classifier,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := HealthResponse{Status: "ok", ModelLoaded: s.recommender.Available()}
	if st, ok := s.classifier.(interface{ State() string }); ok {
		resp.Classifier = st.State()
	}
	writeJSON(w, http.StatusOK, resp)
}
