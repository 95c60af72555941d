package dashboard

import (
	"net/http"

	"github.com/KaramelBytes/rankboard/internal/dataset"
)

const (
	sessionName   = "rankboard"
	keyDataset    = "dataset"
	keyUploadName = "upload_name"
	keyUploadID   = "upload_id"
)

// source describes where the current table came from.
type source struct {
	Table    *dataset.Table
	Uploaded bool
	UploadID string
	// Expired is set when the session named an upload the cache no longer holds.
	Expired bool
}

// current resolves the table for this request: the session's upload when it
// is still cached, else the bundled dataset.
func (s *Server) current(w http.ResponseWriter, r *http.Request) (source, error) {
	sess, _ := s.sessionStore.Get(r, sessionName)
	key, _ := sess.Values[keyDataset].(string)
	if key != "" {
		if t, ok := s.tables.Lookup(key); ok {
			id, _ := sess.Values[keyUploadID].(string)
			return source{Table: t, Uploaded: true, UploadID: id}, nil
		}
		s.logger.Info("uploaded dataset no longer cached", "identity", key)
		clearUpload(sess.Values)
		if err := sess.Save(r, w); err != nil {
			s.logger.Error("save session", "error", err)
		}
		t, err := s.bundled()
		return source{Table: t, Expired: true}, err
	}
	t, err := s.bundled()
	return source{Table: t}, err
}

func clearUpload(values map[any]any) {
	delete(values, keyDataset)
	delete(values, keyUploadName)
	delete(values, keyUploadID)
}
