package docrpc

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const StatusOK = "OK"

var ErrMissingField = errors.New("missing required field")

// ChangeKind tells a watcher what happened to a document.
type ChangeKind string

const (
	// ChangeSnapshot carries the current state when a watch starts.
	ChangeSnapshot ChangeKind = "snapshot"
	ChangeUpdated  ChangeKind = "updated"
	// ChangeDeleted also reports a document that does not exist when the
	// watch starts.
	ChangeDeleted ChangeKind = "deleted"
)

type Document struct {
	ID      string
	Data    map[string]any
	Version int64
}

type DocumentRef struct {
	Collection string
	ID         string
}

type Filter struct {
	Field string
	Value any
}

type Change struct {
	Kind     ChangeKind
	Document Document
}

type LoginRequest struct {
	ClientID string
	Secret   string
}

type LoginResponse struct {
	AccessToken string
}

type CreateRequest struct {
	Collection string
	Data       map[string]any
}

type SetRequest struct {
	Collection string
	ID         string
	Data       map[string]any
}

type UpdateRequest struct {
	Collection string
	ID         string
	Fields     map[string]any
}

type QueryRequest struct {
	Collection string
	Filters    []Filter
}

type QueryResponse struct {
	Documents []Document
}

func newStruct(m map[string]any) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	return s, nil
}

func invalidArgument(err error) error {
	return status.Error(codes.InvalidArgument, err.Error())
}

func stringField(s *structpb.Struct, name string) string {
	return s.GetFields()[name].GetStringValue()
}

func mapField(s *structpb.Struct, name string) map[string]any {
	v := s.GetFields()[name].GetStructValue()
	if v == nil {
		return map[string]any{}
	}
	return v.AsMap()
}

func required(name, value string) error {
	if value == "" {
		return fmt.Errorf("%w: %s", ErrMissingField, name)
	}
	return nil
}

func (d Document) asMap() map[string]any {
	data := d.Data
	if data == nil {
		data = map[string]any{}
	}
	return map[string]any{"id": d.ID, "data": data, "version": d.Version}
}

func (d Document) Struct() (*structpb.Struct, error) {
	return newStruct(d.asMap())
}

func DecodeDocument(s *structpb.Struct) Document {
	return Document{
		ID:      stringField(s, "id"),
		Data:    mapField(s, "data"),
		Version: int64(s.GetFields()["version"].GetNumberValue()),
	}
}

func (r DocumentRef) Struct() (*structpb.Struct, error) {
	return newStruct(map[string]any{"collection": r.Collection, "id": r.ID})
}

func DecodeDocumentRef(s *structpb.Struct) (DocumentRef, error) {
	r := DocumentRef{Collection: stringField(s, "collection"), ID: stringField(s, "id")}
	if err := errors.Join(required("collection", r.Collection), required("id", r.ID)); err != nil {
		return DocumentRef{}, err
	}
	return r, nil
}

func (r LoginRequest) Struct() (*structpb.Struct, error) {
	return newStruct(map[string]any{"client_id": r.ClientID, "secret": r.Secret})
}

func DecodeLoginRequest(s *structpb.Struct) (LoginRequest, error) {
	r := LoginRequest{ClientID: stringField(s, "client_id"), Secret: stringField(s, "secret")}
	if err := required("client_id", r.ClientID); err != nil {
		return LoginRequest{}, err
	}
	return r, nil
}

func (r LoginResponse) Struct() (*structpb.Struct, error) {
	return newStruct(map[string]any{"access_token": r.AccessToken})
}

func DecodeLoginResponse(s *structpb.Struct) LoginResponse {
	return LoginResponse{AccessToken: stringField(s, "access_token")}
}

func (r CreateRequest) Struct() (*structpb.Struct, error) {
	return newStruct(map[string]any{"collection": r.Collection, "data": orEmpty(r.Data)})
}

func DecodeCreateRequest(s *structpb.Struct) (CreateRequest, error) {
	r := CreateRequest{Collection: stringField(s, "collection"), Data: mapField(s, "data")}
	if err := required("collection", r.Collection); err != nil {
		return CreateRequest{}, err
	}
	return r, nil
}

func (r SetRequest) Struct() (*structpb.Struct, error) {
	return newStruct(map[string]any{"collection": r.Collection, "id": r.ID, "data": orEmpty(r.Data)})
}

func DecodeSetRequest(s *structpb.Struct) (SetRequest, error) {
	r := SetRequest{
		Collection: stringField(s, "collection"),
		ID:         stringField(s, "id"),
		Data:       mapField(s, "data"),
	}
	if err := errors.Join(required("collection", r.Collection), required("id", r.ID)); err != nil {
		return SetRequest{}, err
	}
	return r, nil
}

func (r UpdateRequest) Struct() (*structpb.Struct, error) {
	return newStruct(map[string]any{"collection": r.Collection, "id": r.ID, "fields": orEmpty(r.Fields)})
}

func DecodeUpdateRequest(s *structpb.Struct) (UpdateRequest, error) {
	r := UpdateRequest{
		Collection: stringField(s, "collection"),
		ID:         stringField(s, "id"),
		Fields:     mapField(s, "fields"),
	}
	if err := errors.Join(required("collection", r.Collection), required("id", r.ID)); err != nil {
		return UpdateRequest{}, err
	}
	return r, nil
}

func (r QueryRequest) Struct() (*structpb.Struct, error) {
	filters := make([]any, 0, len(r.Filters))
	for _, f := range r.Filters {
		filters = append(filters, map[string]any{"field": f.Field, "value": f.Value})
	}
	return newStruct(map[string]any{"collection": r.Collection, "filters": filters})
}

func DecodeQueryRequest(s *structpb.Struct) (QueryRequest, error) {
	r := QueryRequest{Collection: stringField(s, "collection")}
	if err := required("collection", r.Collection); err != nil {
		return QueryRequest{}, err
	}
	for _, v := range s.GetFields()["filters"].GetListValue().GetValues() {
		f := v.GetStructValue()
		field := stringField(f, "field")
		if err := required("filter field", field); err != nil {
			return QueryRequest{}, err
		}
		r.Filters = append(r.Filters, Filter{Field: field, Value: f.GetFields()["value"].AsInterface()})
	}
	return r, nil
}

func (r QueryResponse) Struct() (*structpb.Struct, error) {
	docs := make([]any, 0, len(r.Documents))
	for _, d := range r.Documents {
		docs = append(docs, d.asMap())
	}
	return newStruct(map[string]any{"documents": docs})
}

func DecodeQueryResponse(s *structpb.Struct) QueryResponse {
	var r QueryResponse
	for _, v := range s.GetFields()["documents"].GetListValue().GetValues() {
		r.Documents = append(r.Documents, DecodeDocument(v.GetStructValue()))
	}
	return r
}

func (c Change) Struct() (*structpb.Struct, error) {
	return newStruct(map[string]any{"kind": string(c.Kind), "document": c.Document.asMap()})
}

func DecodeChange(s *structpb.Struct) Change {
	return Change{
		Kind:     ChangeKind(stringField(s, "kind")),
		Document: DecodeDocument(s.GetFields()["document"].GetStructValue()),
	}
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
