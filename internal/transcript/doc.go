// Package transcript writes the plain text message transcript of a thread.
//
// A transcript starts with a header naming the thread and its location,
// followed by one record per message:
//
//	------------------------------------------
//	#21 [/goto/post?id=1001] - 2024-03-01T10:00:00Z
//	by Alice
//	------------------------------------------
//
//	message body
//
//	Attachments
//	1: photo.jpg
package transcript
