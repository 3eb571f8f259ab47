package conversation

// DisplayStatus computes the verification badge for the message with the given seq.
// Message payloads are never updated after append; the badge is derived from
// later messages and the conversation status instead.
func (s Snapshot) DisplayStatus(seq int64) (VerificationStatus, bool) {
	idx := -1
	for i, m := range s.Messages {
		if m.Seq == seq {
			idx = i
			break
		}
	}
	if idx < 0 || s.Messages[idx].Verification == nil {
		return "", false
	}
	v := s.Messages[idx].Verification
	switch v.Kind {
	case VerificationRequest:
		for _, later := range s.Messages[idx+1:] {
			if later.Verification != nil && later.Verification.Kind == VerificationResponse {
				return VerificationSubmitted, true
			}
		}
		return VerificationPending, true
	case VerificationResponse:
		acknowledged := false
		for _, later := range s.Messages[idx+1:] {
			if later.Verification != nil && later.Verification.Kind == VerificationDecision && later.Verification.Ref == seq {
				return later.Verification.Status, true
			}
			if later.Sender == SenderFinder {
				acknowledged = true
			}
		}
		if acknowledged && s.Status == StatusVerificationInProgress {
			return VerificationReviewing, true
		}
		return VerificationSubmitted, true
	default:
		return v.Status, true
	}
}

// Reviewed reports whether the submission with the given seq has a recorded decision.
func (s Snapshot) Reviewed(seq int64) bool {
	st, ok := s.DisplayStatus(seq)
	return ok && (st == VerificationApproved || st == VerificationRejected)
}
