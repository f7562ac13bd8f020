package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/joeshaw/aveiro-bus/internal/filter"
	"github.com/joeshaw/aveiro-bus/internal/models"
)

func (s *Server) handleNotices(w http.ResponseWriter, r *http.Request) {
	if s.notices == nil {
		s.sendError(w, r, errNotConfigured)
		return
	}

	list, err := s.notices.List(r.Context())
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	list = filter.Paginate(filter.NewOptions(r.URL.Query()), list)

	resources := make([]Resource, len(list))
	for i, n := range list {
		resources[i] = noticeToResource(n, false)
	}

	s.sendResponse(w, r, Response{
		Data: resources,
		Links: map[string]string{
			"self": "/notices",
		},
	})
}

func (s *Server) handleNotice(w http.ResponseWriter, r *http.Request) {
	if s.notices == nil {
		s.sendError(w, r, errNotConfigured)
		return
	}
	id := mux.Vars(r)["id"]

	n, err := s.notices.Get(r.Context(), id)
	if err != nil {
		s.sendError(w, r, err)
		return
	}

	s.sendResponse(w, r, Response{
		Data: noticeToResource(*n, true),
		Links: map[string]string{
			"self": "/notices/" + id,
		},
	})
}

// noticeToResource converts a notice. The list view leaves out the
// detailed text.
func noticeToResource(n models.Notice, detailed bool) Resource {
	attributes := map[string]any{
		"title":        n.Title,
		"content":      n.Content,
		"published_at": n.PublishedAt,
	}
	if n.Link != "" {
		attributes["link"] = n.Link
	}
	if detailed {
		attributes["detailed_info"] = n.DetailedInfo
	}

	return Resource{
		Type:       "notice",
		ID:         n.ID,
		Attributes: attributes,
		Links: map[string]string{
			"self": "/notices/" + n.ID,
		},
	}
}
