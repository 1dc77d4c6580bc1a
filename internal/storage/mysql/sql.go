package mysql

const insertTurnSQL = `
INSERT INTO chat_turns
  (session_id, channel, guest_message, reply, arrival, departure, adults, children, alert, created_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// A second press of the same button only refreshes the timestamp.
const insertAckSQL = `
INSERT INTO host_acks (session_id, label, acked_at)
VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE acked_at = VALUES(acked_at)
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

// Oldest first so a transcript reads top to bottom.
const listTurnsSQL = `
SELECT
  id,
  session_id,
  channel,
  guest_message,
  reply,
  arrival,
  departure,
  adults,
  children,
  alert,
  created_at
FROM chat_turns
WHERE session_id = ?
ORDER BY created_at ASC, id ASC
LIMIT ?
`
