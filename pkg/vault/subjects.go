package vault

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/doodlesbykumbi/piivault/pkg/audit"
	"github.com/doodlesbykumbi/piivault/pkg/model"
	"github.com/doodlesbykumbi/piivault/pkg/policy"
	"github.com/doodlesbykumbi/piivault/pkg/server/store"
)

var subjectEIDRgx = regexp.MustCompile(`^[a-zA-Z0-9._@-]{1,128}$`)

// CreateSubject registers a data subject under an external ID.
func (v *Vault) CreateSubject(ctx context.Context, eid string) (*model.Subject, error) {
	if err := v.ValidateAction(ctx, policy.ActionWrite, SubjectsResource()); err != nil {
		return nil, err
	}

	if !subjectEIDRgx.MatchString(eid) {
		return nil, &ValueError{Msg: fmt.Sprintf("invalid subject eid %q", eid)}
	}

	subject := &model.Subject{
		ID:  model.NewSubjectID(),
		EID: eid,
	}
	if err := v.Subjects.CreateSubject(subject); err != nil {
		if errors.Is(err, store.ErrSubjectExists) {
			return nil, &ConflictError{Msg: fmt.Sprintf("subject %q already exists", eid)}
		}
		return nil, err
	}

	return subject, nil
}

// GetSubject retrieves a subject by external ID.
func (v *Vault) GetSubject(ctx context.Context, eid string) (*model.Subject, error) {
	if err := v.ValidateAction(ctx, policy.ActionRead, SubjectResource(eid)); err != nil {
		return nil, err
	}

	subject, err := v.Subjects.GetSubject(eid)
	if err != nil {
		if errors.Is(err, store.ErrSubjectNotFound) {
			return nil, &NotFoundError{Kind: "subject", ID: eid}
		}
		return nil, err
	}
	return subject, nil
}

// ListSubjects lists all subject external IDs.
func (v *Vault) ListSubjects(ctx context.Context) ([]string, error) {
	if err := v.ValidateAction(ctx, policy.ActionRead, SubjectsResource()); err != nil {
		return nil, err
	}

	subjects, err := v.Subjects.ListSubjects()
	if err != nil {
		return nil, err
	}

	eids := make([]string, 0, len(subjects))
	for _, subject := range subjects {
		eids = append(eids, subject.EID)
	}
	return eids, nil
}

// EraseSubject removes a subject and cascades through every record pinned
// to it, including child records. The erasure is atomic.
func (v *Vault) EraseSubject(ctx context.Context, eid string) error {
	if err := v.ValidateAction(ctx, policy.ActionWrite, SubjectResource(eid)); err != nil {
		return err
	}

	result, err := v.Subjects.EraseSubject(eid, v.PurgeTokensOnDelete)
	if err != nil {
		if errors.Is(err, store.ErrSubjectNotFound) {
			return &NotFoundError{Kind: "subject", ID: eid}
		}
		audit.Log(audit.EraseEvent{
			Username:     username(ctx),
			ClientIP:     clientIP(ctx),
			SubjectEID:   eid,
			Success:      false,
			ErrorMessage: err.Error(),
		})
		return err
	}

	audit.Log(audit.EraseEvent{
		Username:       username(ctx),
		ClientIP:       clientIP(ctx),
		SubjectEID:     eid,
		RecordsDeleted: result.RecordsDeleted,
		TokensPurged:   result.TokensPurged,
		Success:        true,
	})

	return nil
}
