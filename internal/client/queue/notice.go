package queue

import "fmt"

type NoticeKind string

const (
	NoticeQueued           NoticeKind = "queued"
	NoticeBatchStarted     NoticeKind = "batch_started"
	NoticeBatchCompleted   NoticeKind = "batch_completed"
	NoticeReuploadRequired NoticeKind = "reupload_required"
)

// Notice is a user-facing status message. Batch notices carry counts only.
type Notice struct {
	Kind      NoticeKind
	Message   string
	Pending   int
	Succeeded int
	Failed    int
}

func queuedNotice(name string, pending int) Notice {
	return Notice{
		Kind:    NoticeQueued,
		Message: fmt.Sprintf("%s queued for later", name),
		Pending: pending,
	}
}

func batchStartedNotice(pending int) Notice {
	return Notice{
		Kind:    NoticeBatchStarted,
		Message: fmt.Sprintf("uploading %d queued file(s)", pending),
		Pending: pending,
	}
}

func batchCompletedNotice(succeeded, failed, pending int) Notice {
	return Notice{
		Kind:      NoticeBatchCompleted,
		Message:   fmt.Sprintf("queue processed: %d uploaded, %d failed, %d pending", succeeded, failed, pending),
		Pending:   pending,
		Succeeded: succeeded,
		Failed:    failed,
	}
}

func reuploadNotice(lost int) Notice {
	return Notice{
		Kind:    NoticeReuploadRequired,
		Message: fmt.Sprintf("%d queued upload(s) did not survive the restart; please upload them again", lost),
		Failed:  lost,
	}
}
