package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/okian/playground/internal/domain/model"
)

const (
	maxBodyBytes  = 64 << 10
	maxAttributes = 64
)

// profileRequest is the intake form body. Besides full_name and email every
// top-level key is taken as a profile attribute; an explicit "attributes"
// object is merged in as well.
type profileRequest struct {
	FullName   string
	Email      string
	Attributes map[string]model.Attribute
}

func (p *profileRequest) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	p.Attributes = make(map[string]model.Attribute, len(raw))
	for key, value := range raw {
		switch key {
		case "full_name":
			if err := json.Unmarshal(value, &p.FullName); err != nil {
				return errors.New("full_name must be a string")
			}
		case "email":
			if err := json.Unmarshal(value, &p.Email); err != nil {
				return errors.New("email must be a string")
			}
		case "attributes":
			var nested map[string]model.Attribute
			if err := json.Unmarshal(value, &nested); err != nil {
				return errors.New("attributes must be an object")
			}
			for k, a := range nested {
				p.put(k, a)
			}
		default:
			var a model.Attribute
			_ = a.UnmarshalJSON(value)
			p.put(key, a)
		}
	}
	return nil
}

func (p *profileRequest) put(key string, a model.Attribute) {
	key = strings.TrimSpace(key)
	if key == "" || a.Empty() {
		return
	}
	p.Attributes[key] = a
}

func (p profileRequest) validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.FullName, validation.Required, validation.Length(1, 200)),
		validation.Field(&p.Email, validation.Required, validation.Length(3, 254)),
		validation.Field(&p.Attributes, validation.Length(0, maxAttributes)),
	)
}

func (p profileRequest) profile(role model.Role) model.Profile {
	return model.Profile{
		Role:       role,
		Name:       strings.TrimSpace(p.FullName),
		Email:      strings.TrimSpace(p.Email),
		Attributes: p.Attributes,
	}
}

func decodeProfile(w http.ResponseWriter, r *http.Request) (profileRequest, error) {
	var req profileRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		return req, err
	}
	return req, req.validate()
}

type contactView struct {
	ID    string `json:"id"`
	Name  string `json:"full_name"`
	Email string `json:"email"`
}

type intakeResponse struct {
	ID       string   `json:"id"`
	Role     string   `json:"role"`
	Warnings []string `json:"warnings,omitempty"`
}

type matchResponse struct {
	SeekerID  string       `json:"seeker_id"`
	Matched   bool         `json:"matched"`
	Reason    string       `json:"reason,omitempty"`
	Candidate *contactView `json:"candidate,omitempty"`
	Score     float64      `json:"score"`
	Percent   int          `json:"percent"`
	RecordID  string       `json:"record_id,omitempty"`
	Skipped   int          `json:"skipped,omitempty"`
	Warnings  []string     `json:"warnings,omitempty"`
}

// handleSubmitCandidate handles POST /candidates.
func (s *Server) handleSubmitCandidate(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_candidate"
	req, err := decodeProfile(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	in, err := s.deps.SubmitCandidate(r.Context(), req.profile(model.RoleCandidate))
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, intakeResponse{
		ID:       in.Profile.ID,
		Role:     string(model.RoleCandidate),
		Warnings: warnings(in.ProfileErr),
	})
}

// handleSubmitSeeker handles POST /seekers. The response carries the match
// outcome; storage problems that did not stop the flow appear as warnings.
func (s *Server) handleSubmitSeeker(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_seeker"
	req, err := decodeProfile(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	out, err := s.deps.SubmitSeeker(r.Context(), req.profile(model.RoleSeeker))
	if err != nil {
		s.fail(w, r, op, err)
		return
	}

	resp := matchResponse{
		SeekerID: out.Seeker.ID,
		Matched:  out.Matched,
		Reason:   out.Reason,
		Skipped:  out.Skipped,
		Warnings: warnings(out.ProfileErr, out.FetchErr, out.RecordErr),
	}
	if out.Matched {
		resp.Candidate = &contactView{ID: out.Candidate.ID, Name: out.Candidate.Name, Email: out.Candidate.Email}
		resp.Score = out.Score
		resp.Percent = model.Percent(out.Score)
		resp.RecordID = out.Record.ID
	}
	writeJSON(w, http.StatusCreated, resp)
}

func warnings(errs ...error) []string {
	var out []string
	for _, err := range errs {
		if err != nil {
			out = append(out, err.Error())
		}
	}
	return out
}
