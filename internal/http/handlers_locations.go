package http

import (
	"net/http"
	"strings"

	"khetbook/internal/location"
)

type locationsResponse struct {
	Language string           `json:"language"`
	Level    string           `json:"level"`
	Entries  []location.Entry `json:"entries"`
}

// handleLocations lists one level of the location table. With no region
// it lists regions; with a region, its sub-regions; with both, the
// settlements of that pair. The language comes from ?lang or
// Accept-Language.
func (s *Server) handleLocations(w http.ResponseWriter, r *http.Request) {
	lang := queryParam(r, "lang")
	if lang == "" {
		lang = r.Header.Get("Accept-Language")
	}
	h, err := s.hierarchy(lang)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	region, sub := queryParam(r, "region"), queryParam(r, "subRegion")
	resp := locationsResponse{Language: h.Language()}
	switch {
	case region == "":
		resp.Level, resp.Entries = location.KindRegion.String(), h.Regions()
	case sub == "":
		resp.Level, resp.Entries = location.KindSubRegion.String(), h.SubRegions(region)
	default:
		resp.Level, resp.Entries = location.KindSettlement.String(), h.Settlements(region, sub)
	}
	writeJSON(w, http.StatusOK, resp)
}

// hierarchy returns the table for lang, parsing it at most once per
// distinct language preference.
func (s *Server) hierarchy(lang string) (*location.Hierarchy, error) {
	key := strings.ToLower(strings.TrimSpace(lang))
	return s.hierarchies.GetOrLoad(key, func() (*location.Hierarchy, error) {
		return location.Load(lang)
	})
}
