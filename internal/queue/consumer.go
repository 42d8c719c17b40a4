// Package queue also contains the background consumer that tails the
// bed event queues and appends a human-readable line per event to
// logs/bed-events.log, the feed the ward dashboard reads.
package queue

import (
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/rs/zerolog"
)

// eventQueues is every stream the ward log follows.
var eventQueues = []string{
    TopicBedStatusChanged,
    TopicBedAssigned,
    TopicBedTransferred,
    TopicBedReleased,
    TopicAdmissionDischarged,
}

// StartWardLogConsumer connects to RabbitMQ, declares the bed event
// queues (durable) and consumes them onto logs/bed-events.log.  It
// runs a reconnect loop with exponential backoff and keeps running
// through processing errors, rejecting the offending message so the
// server continues operating.
func StartWardLogConsumer(url string, logger zerolog.Logger) error {
    log := logger.With().Str("component", "ward_log_consumer").Logger()

    backoff := time.Second
    for {
        conn, err := amqp.Dial(url)
        if err != nil {
            log.Warn().Err(err).Dur("retry_in", backoff).Msg("failed to dial broker")
            time.Sleep(backoff)
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        if err := consumeAll(conn, log); err != nil {
            log.Warn().Err(err).Msg("consume loop ended; reconnecting")
            time.Sleep(2 * time.Second)
        }
    }
}

// consumeAll opens one channel per queue and blocks until any of the
// delivery streams closes.
func consumeAll(conn *amqp.Connection, log zerolog.Logger) error {
    done := make(chan error, len(eventQueues))
    var wg sync.WaitGroup

    for _, name := range eventQueues {
        ch, err := conn.Channel()
        if err != nil {
            return fmt.Errorf("channel open: %w", err)
        }
        if err := ch.Qos(50, 0, false); err != nil {
            log.Warn().Err(err).Msg("set QoS failed")
        }
        if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
            _ = ch.Close()
            return fmt.Errorf("queue declare %s: %w", name, err)
        }
        msgs, err := ch.Consume(name, "", false, false, false, false, nil)
        if err != nil {
            _ = ch.Close()
            return fmt.Errorf("queue consume %s: %w", name, err)
        }

        wg.Add(1)
        go func(queueName string, deliveries <-chan amqp.Delivery, ch *amqp.Channel) {
            defer wg.Done()
            defer func() { _ = ch.Close() }()
            for d := range deliveries {
                if err := appendWardLog(queueName, d.Body); err != nil {
                    log.Warn().Err(err).Str("queue", queueName).Msg("handle message failed")
                    _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
                    continue
                }
                _ = d.Ack(false)
            }
            done <- errors.New("deliveries channel closed: " + queueName)
        }(name, msgs, ch)
    }

    err := <-done
    _ = conn.Close()
    wg.Wait()
    return err
}

var wardLogMu sync.Mutex

// appendWardLog formats one event into a single line and appends it
// to logs/bed-events.log.
func appendWardLog(queueName string, body []byte) error {
    line, err := formatEvent(queueName, body)
    if err != nil {
        return err
    }

    wardLogMu.Lock()
    defer wardLogMu.Unlock()

    if err := os.MkdirAll("logs", 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    fpath := filepath.Join("logs", "bed-events.log")
    f, err := os.OpenFile(fpath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    if _, err := f.WriteString(line); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// formatEvent renders the queue-specific single-line format.
func formatEvent(queueName string, body []byte) (string, error) {
    switch queueName {
    case TopicBedStatusChanged:
        var ev BedStatusChangedEvent
        if err := json.Unmarshal(body, &ev); err != nil {
            return "", fmt.Errorf("unmarshal: %w", err)
        }
        return fmt.Sprintf("[%s] Bed status changed | bed=%d room=%q floor=%d | %s -> %s | by=%d | reason=%q\n",
            ev.ChangedAt, ev.Bed.BedNumber, ev.Bed.RoomNumber, ev.Bed.FloorNumber,
            ev.OldStatus, ev.NewStatus, ev.ChangedBy, ev.Reason), nil
    case TopicBedAssigned:
        var ev BedAssignedEvent
        if err := json.Unmarshal(body, &ev); err != nil {
            return "", fmt.Errorf("unmarshal: %w", err)
        }
        return fmt.Sprintf("[%s] Bed assigned | bed=%d room=%q floor=%d | admission=%d assignment=%d | by=%d\n",
            ev.AssignedAt, ev.Bed.BedNumber, ev.Bed.RoomNumber, ev.Bed.FloorNumber,
            ev.AdmissionID, ev.AssignmentID, ev.AssignedBy), nil
    case TopicBedTransferred:
        var ev BedTransferredEvent
        if err := json.Unmarshal(body, &ev); err != nil {
            return "", fmt.Errorf("unmarshal: %w", err)
        }
        return fmt.Sprintf("[%s] Patient transferred | admission=%d | bed %d room %q -> bed %d room %q | by=%d | reason=%q\n",
            ev.TransferredAt, ev.AdmissionID,
            ev.OldBed.BedNumber, ev.OldBed.RoomNumber,
            ev.NewBed.BedNumber, ev.NewBed.RoomNumber,
            ev.AssignedBy, ev.Reason), nil
    case TopicBedReleased:
        var ev BedReleasedEvent
        if err := json.Unmarshal(body, &ev); err != nil {
            return "", fmt.Errorf("unmarshal: %w", err)
        }
        return fmt.Sprintf("[%s] Bed released | bed=%d room=%q floor=%d | admission=%d assignment=%d\n",
            ev.ReleasedAt, ev.Bed.BedNumber, ev.Bed.RoomNumber, ev.Bed.FloorNumber,
            ev.AdmissionID, ev.AssignmentID), nil
    case TopicAdmissionDischarged:
        var ev AdmissionDischargedEvent
        if err := json.Unmarshal(body, &ev); err != nil {
            return "", fmt.Errorf("unmarshal: %w", err)
        }
        return fmt.Sprintf("[%s] Admission discharged | admission=%d patient=%d | status=%s type=%q | stay=%d days\n",
            ev.DischargedAt, ev.AdmissionID, ev.PatientID, ev.Status, ev.DischargeType, ev.LengthOfStayDays), nil
    }
    return "", fmt.Errorf("unknown queue %q", queueName)
}
