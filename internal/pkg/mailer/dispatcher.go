package mailer

import (
	"log"
	"time"
)

// Message 待发送的邮件任务
type Message struct {
	To       string
	Subject  string
	Template string
	Data     interface{}
	Retry    int // 重试次数
}

// Dispatcher 异步邮件发送池
// 发送失败只记录日志并重试，永远不会影响触发它的业务操作
type Dispatcher struct {
	TaskQueue  chan Message
	RetryQueue chan Message // 重试队列
	Sender     Sender
	WorkerNum  int
	MaxRetry   int // 最大重试次数
}

func NewDispatcher(sender Sender, workerNum int, bufferSize int) *Dispatcher {
	return &Dispatcher{
		TaskQueue:  make(chan Message, bufferSize),
		RetryQueue: make(chan Message, bufferSize/2),
		Sender:     sender,
		WorkerNum:  workerNum,
		MaxRetry:   3,
	}
}

func (d *Dispatcher) Start() {
	for i := 0; i < d.WorkerNum; i++ {
		go d.worker(i)
	}
	// 启动重试处理协程
	go d.retryWorker()
	log.Printf("Mail dispatcher started with %d workers", d.WorkerNum)
}

func (d *Dispatcher) worker(id int) {
	for msg := range d.TaskQueue {
		if err := d.Sender.Send(msg.To, msg.Subject, msg.Template, msg.Data); err != nil {
			log.Printf("[MailWorker %d] Failed to send %s to %s: %v", id, msg.Template, msg.To, err)

			// 如果未达到最大重试次数，加入重试队列
			if msg.Retry < d.MaxRetry {
				msg.Retry++
				select {
				case d.RetryQueue <- msg:
					log.Printf("[MailWorker %d] Mail added to retry queue (attempt %d/%d)",
						id, msg.Retry, d.MaxRetry)
				default:
					log.Printf("[MailWorker %d] Retry queue full, mail dropped: %s -> %s", id, msg.Template, msg.To)
					d.logFailed(msg, err)
				}
			} else {
				log.Printf("[MailWorker %d] Mail exceeded max retries, dropped: %s -> %s", id, msg.Template, msg.To)
				d.logFailed(msg, err)
			}
		}
	}
}

func (d *Dispatcher) retryWorker() {
	for msg := range d.RetryQueue {
		// 延迟重试，避免立即重试
		time.Sleep(time.Duration(msg.Retry) * time.Second)

		select {
		case d.TaskQueue <- msg:
		default:
			log.Printf("[MailRetryWorker] Main queue full, mail dropped: %s -> %s", msg.Template, msg.To)
			d.logFailed(msg, nil)
		}
	}
}

func (d *Dispatcher) logFailed(msg Message, err error) {
	log.Printf("[MailDeadLetter] Mail failed permanently: template=%s, to=%s, err=%v",
		msg.Template, msg.To, err)
}

// Enqueue 投递邮件任务，队列满时直接丢弃并记录
func (d *Dispatcher) Enqueue(msg Message) {
	select {
	case d.TaskQueue <- msg:
		// 任务入队成功
	default:
		log.Printf("Mail queue full, dropping mail: %s -> %s", msg.Template, msg.To)
		d.logFailed(msg, nil)
	}
}
