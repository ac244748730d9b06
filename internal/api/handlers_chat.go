package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dgallion1/llmdesk/internal/provider"
)

type chatInput struct {
	Question string `json:"question" validate:"required,max=32000"`
	Model    string `json:"model" validate:"omitempty,max=200"`
}

type chatRequest struct {
	Input *chatInput `json:"input"`
}

type chatResponse struct {
	Output string `json:"output"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (s *Server) handleChat(mode string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			detailError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}
		if req.Input == nil {
			detailError(w, "input is required", http.StatusUnprocessableEntity)
			return
		}
		in := *req.Input
		in.Question = strings.TrimSpace(in.Question)
		in.Model = strings.TrimSpace(in.Model)
		if err := s.validate.Struct(in); err != nil {
			detailError(w, validationDetail(err), http.StatusUnprocessableEntity)
			return
		}
		if in.Model == "" {
			in.Model = s.defaults[mode]
		}

		p := s.providers[mode]
		output, err := p.Generate(r.Context(), in.Model, in.Question)
		if err != nil {
			var (
				mk   *provider.MissingKeyError
				perr *provider.Error
			)
			switch {
			case errors.As(err, &mk):
				s.log.Error("generate failed", "mode", mode, "provider", p.Name(), "error", err)
				detailError(w, mk.Error(), http.StatusInternalServerError)
			case errors.As(err, &perr) && perr.ModelMissing():
				// Clients key the model-missing hint on the word "model".
				s.log.Warn("model not available", "mode", mode, "provider", p.Name(), "model", in.Model, "error", err)
				detailError(w, fmt.Sprintf("Error generating response: model %q not found: %v", in.Model, err), http.StatusInternalServerError)
			default:
				s.log.Error("generate failed", "mode", mode, "provider", p.Name(), "model", in.Model, "error", err)
				detailError(w, "Error generating response: "+err.Error(), http.StatusInternalServerError)
			}
			return
		}

		s.log.Debug("generated", "mode", mode, "model", in.Model, "chars", len(output))
		writeJSON(w, http.StatusOK, chatResponse{Output: output})
	}
}

func validationDetail(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s exceeds %s characters", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fe.Field()+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}
