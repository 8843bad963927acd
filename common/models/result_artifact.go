package models

import "encoding/json"

// ResultArtifact describes the spreadsheet uploaded for a finished job.
type ResultArtifact struct {
	FileName    string `json:"file_name"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
	URL         string `json:"url"`
}

// to json
func (r *ResultArtifact) ToJson() ([]byte, error) {
	return json.Marshal(r)
}

// from json
func ResultArtifactFromJson(j []byte) (*ResultArtifact, error) {
	var r ResultArtifact
	err := json.Unmarshal(j, &r)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
