package model

// DownloadStatus is the persisted resume marker of one thread.
//
// URL is the page that contains MessageID, so a resumed crawl can fetch
// exactly that page again. MessageID is the last message whose transcript
// record and attachments were fully written.
type DownloadStatus struct {
	ThreadID  int64  `json:"threadID"`
	URL       string `json:"url"`
	MessageID int64  `json:"messageID"`
}
