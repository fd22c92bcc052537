package events

import "testing"

func TestParseObjectKey(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		wantID   string
		wantType string
		wantFile string
		wantErr  bool
	}{
		{name: "valid", key: "rec-123/identity/passport.pdf", wantID: "rec-123", wantType: "identity", wantFile: "passport.pdf"},
		{name: "valid nested filename", key: "rec-123/references/2024/letter.pdf", wantID: "rec-123", wantType: "references", wantFile: "2024/letter.pdf"},
		{name: "document type lowercased", key: "rec-123/Criminal_History/report.pdf", wantID: "rec-123", wantType: "criminal_history", wantFile: "report.pdf"},
		{name: "backslash separators", key: "rec-123\\identity\\passport.pdf", wantID: "rec-123", wantType: "identity", wantFile: "passport.pdf"},
		{name: "missing document type", key: "rec-123/passport.pdf", wantErr: true},
		{name: "bare clearance id", key: "rec-123", wantErr: true},
		{name: "folder marker", key: "rec-123/identity/", wantErr: true},
		{name: "empty", key: "", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearanceID, documentType, filename, err := parseObjectKey(tc.key)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if clearanceID != tc.wantID {
				t.Fatalf("clearanceID mismatch: got %q want %q", clearanceID, tc.wantID)
			}
			if documentType != tc.wantType {
				t.Fatalf("documentType mismatch: got %q want %q", documentType, tc.wantType)
			}
			if filename != tc.wantFile {
				t.Fatalf("filename mismatch: got %q want %q", filename, tc.wantFile)
			}
		})
	}
}

func TestDecodeObjectKey(t *testing.T) {
	decoded, err := decodeObjectKey("rec-123%2Fidentity%2Fpassport%20scan.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decoded != "rec-123/identity/passport scan.pdf" {
		t.Fatalf("decoded mismatch: got %q", decoded)
	}
}
