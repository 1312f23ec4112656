package transport

import (
	"fmt"
	"net/http"

	"github.com/mesh-intelligence/folio/pkg/types"
)

type nameRequest struct {
	Name string `json:"name"`
}

type createPropertyRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type moveRequest struct {
	Direction string `json:"direction"`
}

type titleRequest struct {
	Title string `json:"title"`
}

type contentRequest struct {
	Body string `json:"body"`
}

// valueRequest carries a value in its text form; it is parsed against the
// property's type.
type valueRequest struct {
	Value string `json:"value"`
}

type valueResponse struct {
	PageID     int64       `json:"page_id"`
	PropertyID int64       `json:"property_id"`
	Value      types.Value `json:"value"`
}

// filterRequest names the kind and gives operands as text. Omitted operands
// fall back to the kind's defaults.
type filterRequest struct {
	PropertyID int64   `json:"property_id"`
	Kind       string  `json:"kind"`
	Value      *string `json:"value,omitempty"`
	Start      *string `json:"start,omitempty"`
	End        *string `json:"end,omitempty"`
}

type sortRequest struct {
	PropertyID int64  `json:"property_id"`
	Direction  string `json:"direction"`
}

type sortResponse struct {
	Sort *types.Sort `json:"sort"`
}

// Collections.

func (s *Server) listCollections(w http.ResponseWriter, r *http.Request) {
	auth, ok := authContext(w, r)
	if !ok {
		return
	}
	cols, err := s.ws.Collections().List(r.Context(), auth)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cols)
}

func (s *Server) createCollection(w http.ResponseWriter, r *http.Request) {
	auth, ok := authContext(w, r)
	if !ok {
		return
	}
	var req nameRequest
	if !decode(w, r, &req) {
		return
	}
	col, err := s.ws.Collections().Create(r.Context(), auth, req.Name)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, col)
}

func (s *Server) getCollection(w http.ResponseWriter, r *http.Request) {
	auth, ok := authContext(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "collectionID")
	if !ok {
		return
	}
	col, err := s.ws.Collections().Get(r.Context(), auth, id)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, col)
}

func (s *Server) renameCollection(w http.ResponseWriter, r *http.Request) {
	auth, ok := authContext(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "collectionID")
	if !ok {
		return
	}
	var req nameRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.ws.Collections().Rename(r.Context(), auth, id, req.Name); err != nil {
		s.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteCollection(w http.ResponseWriter, r *http.Request) {
	auth, ok := authContext(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "collectionID")
	if !ok {
		return
	}
	if err := s.ws.Collections().Delete(r.Context(), auth, id); err != nil {
		s.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Properties.

func (s *Server) listProperties(w http.ResponseWriter, r *http.Request) {
	auth, ok := authContext(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "collectionID")
	if !ok {
		return
	}
	props, err := s.ws.Properties().List(r.Context(), auth, types.PropertyQuery{CollectionID: id})
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, props)
}

func (s *Server) createProperty(w http.ResponseWriter, r *http.Request) {
	auth, ok := authContext(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "collectionID")
	if !ok {
		return
	}
	var req createPropertyRequest
	if !decode(w, r, &req) {
		return
	}
	vt, err := types.ParseValueType(req.Type)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	prop, err := s.ws.Properties().Create(r.Context(), auth, id, req.Name, vt)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, prop)
}

func (s *Server) getProperty(w http.ResponseWriter, r *http.Request) {
	auth, ok := authContext(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "propertyID")
	if !ok {
		return
	}
	prop, err := s.ws.Properties().Get(r.Context(), auth, id)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prop)
}

func (s *Server) renameProperty(w http.ResponseWriter, r *http.Request) {
	auth, ok := authContext(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "propertyID")
	if !ok {
		return
	}
	var req nameRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.ws.Properties().Rename(r.Context(), auth, id, req.Name); err != nil {
		s.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// moveProperty swaps the property with its neighbour and replies with the
// collection's properties in their new order.
func (s *Server) moveProperty(w http.ResponseWriter, r *http.Request) {
	auth, ok := authContext(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "propertyID")
	if !ok {
		return
	}
	var req moveRequest
	if !decode(w, r, &req) {
		return
	}
	dir, err := types.ParseMoveDirection(req.Direction)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	props, err := s.ws.Properties().Reorder(r.Context(), auth, id, dir)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, props)
}

func (s *Server) deleteProperty(w http.ResponseWriter, r *http.Request) {
	auth, ok := authContext(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "propertyID")
	if !ok {
		return
	}
	if err := s.ws.Properties().Delete(r.Context(), auth, id); err != nil {
		s.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Pages.

// listPages serves the composed page list. limit and offset are optional
// query parameters with PageQuery semantics.
func (s *Server) listPages(w http.ResponseWriter, r *http.Request) {
	auth, ok := authContext(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "collectionID")
	if !ok {
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "limit must be an integer")
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "offset must be an integer")
		return
	}
	pages, err := s.ws.ListPages(r.Context(), auth, types.PageQuery{CollectionID: id, Limit: limit, Offset: offset})
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pages)
}

func (s *Server) createPage(w http.ResponseWriter, r *http.Request) {
	auth, ok := authContext(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "collectionID")
	if !ok {
		return
	}
	var req titleRequest
	if !decode(w, r, &req) {
		return
	}
	pg, err := s.ws.Pages().Create(r.Context(), auth, id, req.Title)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, pg)
}

func (s *Server) getPage(w http.ResponseWriter, r *http.Request) {
	auth, ok := authContext(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "pageID")
	if !ok {
		return
	}
	pg, err := s.ws.Pages().Get(r.Context(), auth, id)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pg)
}

func (s *Server) retitlePage(w http.ResponseWriter, r *http.Request) {
	auth, ok := authContext(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "pageID")
	if !ok {
		return
	}
	var req titleRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.ws.Pages().SetTitle(r.Context(), auth, id, req.Title); err != nil {
		s.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deletePage(w http.ResponseWriter, r *http.Request) {
	auth, ok := authContext(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "pageID")
	if !ok {
		return
	}
	if err := s.ws.Pages().Delete(r.Context(), auth, id); err != nil {
		s.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getContent(w http.ResponseWriter, r *http.Request) {
	auth, ok := authContext(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "pageID")
	if !ok {
		return
	}
	c, err := s.ws.Pages().Content(r.Context(), auth, id)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) putContent(w http.ResponseWriter, r *http.Request) {
	auth, ok := authContext(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "pageID")
	if !ok {
		return
	}
	var req contentRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.ws.Pages().SetContent(r.Context(), auth, id, req.Body); err != nil {
		s.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Values.

func (s *Server) getValue(w http.ResponseWriter, r *http.Request) {
	auth, ok := authContext(w, r)
	if !ok {
		return
	}
	pageID, ok := pathID(w, r, "pageID")
	if !ok {
		return
	}
	propID, ok := pathID(w, r, "propertyID")
	if !ok {
		return
	}
	v, err := s.ws.Values().Get(r.Context(), auth, pageID, propID)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, valueResponse{PageID: pageID, PropertyID: propID, Value: v})
}

func (s *Server) putValue(w http.ResponseWriter, r *http.Request) {
	auth, ok := authContext(w, r)
	if !ok {
		return
	}
	pageID, ok := pathID(w, r, "pageID")
	if !ok {
		return
	}
	propID, ok := pathID(w, r, "propertyID")
	if !ok {
		return
	}
	var req valueRequest
	if !decode(w, r, &req) {
		return
	}
	prop, err := s.ws.Properties().Get(r.Context(), auth, propID)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	v, err := types.ParseValue(prop.Type, req.Value)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	if err := s.ws.Values().Upsert(r.Context(), auth, pageID, propID, v); err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, valueResponse{PageID: pageID, PropertyID: propID, Value: v})
}

// Filters.

func (s *Server) listFilters(w http.ResponseWriter, r *http.Request) {
	auth, ok := authContext(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "collectionID")
	if !ok {
		return
	}
	filters, err := s.ws.Filters().List(r.Context(), auth, id)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, filters)
}

func (s *Server) availableFilters(w http.ResponseWriter, r *http.Request) {
	auth, ok := authContext(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "collectionID")
	if !ok {
		return
	}
	props, err := s.ws.Filters().Available(r.Context(), auth, id)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, props)
}

func (s *Server) createFilter(w http.ResponseWriter, r *http.Request) {
	auth, ok := authContext(w, r)
	if !ok {
		return
	}
	colID, ok := pathID(w, r, "collectionID")
	if !ok {
		return
	}
	var req filterRequest
	if !decode(w, r, &req) {
		return
	}
	kind, op, err := s.parseFilter(r, auth, colID, req.PropertyID, req)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	f, err := s.ws.Filters().Create(r.Context(), auth, types.FilterSpec{PropertyID: req.PropertyID, Kind: kind, Operand: op})
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

func (s *Server) getFilter(w http.ResponseWriter, r *http.Request) {
	auth, ok := authContext(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "filterID")
	if !ok {
		return
	}
	f, err := s.ws.Filters().Get(r.Context(), auth, id)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (s *Server) updateFilter(w http.ResponseWriter, r *http.Request) {
	auth, ok := authContext(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "filterID")
	if !ok {
		return
	}
	var req filterRequest
	if !decode(w, r, &req) {
		return
	}
	current, err := s.ws.Filters().Get(r.Context(), auth, id)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	kind, op, err := s.parseFilter(r, auth, 0, current.PropertyID, req)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	f, err := s.ws.Filters().Update(r.Context(), auth, id, kind, op)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (s *Server) deleteFilter(w http.ResponseWriter, r *http.Request) {
	auth, ok := authContext(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "filterID")
	if !ok {
		return
	}
	if err := s.ws.Filters().Delete(r.Context(), auth, id); err != nil {
		s.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parseFilter resolves the kind name and parses the text operands against
// the type of propertyID. A non-zero collectionID must own the property.
func (s *Server) parseFilter(r *http.Request, auth types.AuthContext, collectionID, propertyID int64, req filterRequest) (types.FilterKind, types.Operand, error) {
	kind, err := types.ParseFilterKind(req.Kind)
	if err != nil {
		return 0, types.Operand{}, err
	}
	prop, err := s.ws.Properties().Get(r.Context(), auth, propertyID)
	if err != nil {
		return 0, types.Operand{}, err
	}
	if collectionID != 0 && prop.CollectionID != collectionID {
		return 0, types.Operand{}, fmt.Errorf("%w: property %d in collection %d", types.ErrNotFound, propertyID, collectionID)
	}
	var op types.Operand
	for _, field := range []struct {
		raw *string
		dst *types.Value
	}{
		{req.Value, &op.Value},
		{req.Start, &op.Start},
		{req.End, &op.End},
	} {
		if field.raw == nil {
			continue
		}
		v, err := types.ParseValue(prop.Type, *field.raw)
		if err != nil {
			return 0, types.Operand{}, fmt.Errorf("parse operand: %w", err)
		}
		*field.dst = v
	}
	return kind, op, nil
}

// Sort.

func (s *Server) getSort(w http.ResponseWriter, r *http.Request) {
	auth, ok := authContext(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "collectionID")
	if !ok {
		return
	}
	srt, set, err := s.ws.Sorts().Get(r.Context(), auth, id)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	var resp sortResponse
	if set {
		resp.Sort = &srt
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) setSort(w http.ResponseWriter, r *http.Request) {
	auth, ok := authContext(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "collectionID")
	if !ok {
		return
	}
	var req sortRequest
	if !decode(w, r, &req) {
		return
	}
	dir, err := types.ParseSortDirection(req.Direction)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	srt := types.Sort{PropertyID: req.PropertyID, Direction: dir}
	if err := s.ws.Sorts().Set(r.Context(), auth, id, srt); err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sortResponse{Sort: &srt})
}

func (s *Server) clearSort(w http.ResponseWriter, r *http.Request) {
	auth, ok := authContext(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "collectionID")
	if !ok {
		return
	}
	if err := s.ws.Sorts().Clear(r.Context(), auth, id); err != nil {
		s.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
