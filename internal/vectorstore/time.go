package vectorstore

import "time"

func microToTime(us int64) time.Time {
	return time.UnixMicro(us).UTC()
}
