package models

import "time"

// UploadResponse is returned after a dataset upload
type UploadResponse struct {
	Message     string   `json:"message"`
	Rows        int      `json:"rows"`
	Columns     int      `json:"columns"`
	ColumnNames []string `json:"column_names"`
}

// DatasetStatus describes the dataset currently served by the API
type DatasetStatus struct {
	Loaded   bool      `json:"loaded"`
	Rows     int       `json:"rows"`
	Columns  int       `json:"columns"`
	Filename string    `json:"filename,omitempty"`
	Sheet    string    `json:"sheet,omitempty"`
	LoadedAt time.Time `json:"loaded_at,omitempty"`
}

// ErrorResponse is the JSON body of every non-2xx API response
type ErrorResponse struct {
	Error       string   `json:"error"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// DBConnectRequest for /api/db/connect
type DBConnectRequest struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

// DBLoadRequest for /api/db/load
type DBLoadRequest struct {
	TableName string `json:"table_name"`
	Limit     int    `json:"limit"`
}

// PreviewResponse for /api/preview
type PreviewResponse struct {
	Rows    int                 `json:"rows"`
	Headers []string            `json:"headers"`
	Data    []map[string]string `json:"data"`
}
