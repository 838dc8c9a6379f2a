package vault

import (
	"context"
	"errors"
	"fmt"

	"github.com/doodlesbykumbi/piivault/pkg/audit"
	"github.com/doodlesbykumbi/piivault/pkg/model"
	"github.com/doodlesbykumbi/piivault/pkg/policy"
	"github.com/doodlesbykumbi/piivault/pkg/ptype"
	"github.com/doodlesbykumbi/piivault/pkg/server/store"
)

// Tokenize issues a reference token for one rendering of a record field.
// The rendered value is snapshotted into the token, so the token keeps
// resolving after the record is erased. Issuing a token requires read
// access to the requested rendering, since the token's holder can recover
// exactly that value.
func (v *Vault) Tokenize(ctx context.Context, collectionName, recordID, field, format string) (string, error) {
	if !ptype.ValidFormat(format) {
		return "", &ValueError{Msg: fmt.Sprintf("unknown format %q", format)}
	}
	resource := RenderedFieldResource(collectionName, recordID, field, format)
	if err := v.ValidateAction(ctx, policy.ActionRead, resource); err != nil {
		return "", err
	}

	collection, err := v.getCollection(collectionName)
	if err != nil {
		return "", err
	}
	schema, err := collection.ParseSchema()
	if err != nil {
		return "", err
	}
	fieldSchema, ok := schema[field]
	if !ok {
		return "", &ValueError{Msg: "field is not in the collection schema"}
	}

	// the read and the snapshot happen in one store transaction, so the
	// token can never capture a record a cascade has half-deleted
	var token *model.Token
	err = v.Tokens.CreateTokenForRecord(collection.ID, recordID, func(record *model.Record) (*model.Token, error) {
		fields, err := record.DecodeFields()
		if err != nil {
			return nil, err
		}
		canonical, ok := fields[field]
		if !ok {
			return nil, &NotFoundError{Kind: "field", ID: field}
		}

		value, err := ptype.Parse(ptype.TypeName(fieldSchema.Type), canonical)
		if err != nil {
			return nil, err
		}
		rendered, err := value.Get(format)
		if err != nil {
			return nil, &ValueError{Msg: fmt.Sprintf("format %q not supported for field %q", format, field)}
		}

		token = &model.Token{
			ID:       model.NewTokenID(),
			RecordID: record.ID,
			Field:    field,
			Format:   format,
			Value:    []byte(rendered),
		}
		return token, nil
	})
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return "", &NotFoundError{Kind: "record", ID: recordID}
		}
		return "", err
	}

	audit.Log(audit.TokenizeEvent{
		Username:  username(ctx),
		ClientIP:  clientIP(ctx),
		TokenID:   token.ID,
		RecordID:  token.RecordID,
		Field:     field,
		Format:    format,
		Operation: "tokenize",
		Success:   true,
	})

	return token.ID, nil
}

// Detokenize resolves a reference token back to the rendering captured
// when it was issued.
func (v *Vault) Detokenize(ctx context.Context, tokenID string) (string, error) {
	if err := v.ValidateAction(ctx, policy.ActionRead, TokenResource(tokenID)); err != nil {
		return "", err
	}

	token, err := v.Tokens.GetToken(tokenID)
	if err != nil {
		if errors.Is(err, store.ErrTokenNotFound) {
			return "", &NotFoundError{Kind: "token", ID: tokenID}
		}
		return "", err
	}

	audit.Log(audit.TokenizeEvent{
		Username:  username(ctx),
		ClientIP:  clientIP(ctx),
		TokenID:   token.ID,
		RecordID:  token.RecordID,
		Field:     token.Field,
		Format:    token.Format,
		Operation: "detokenize",
		Success:   true,
	})

	return string(token.Value), nil
}

// DeleteToken revokes a reference token.
func (v *Vault) DeleteToken(ctx context.Context, tokenID string) error {
	if err := v.ValidateAction(ctx, policy.ActionWrite, TokenResource(tokenID)); err != nil {
		return err
	}

	if err := v.Tokens.DeleteToken(tokenID); err != nil {
		if errors.Is(err, store.ErrTokenNotFound) {
			return &NotFoundError{Kind: "token", ID: tokenID}
		}
		return err
	}
	return nil
}
