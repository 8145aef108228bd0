package presenter

// AlertQueue yields pending alert messages.
type AlertQueue interface {
	Pop() (string, bool)
}

// Acknowledger clears the stream error once the user has seen it.
type Acknowledger interface {
	Acknowledge()
}

// AlertView shows a blocking notification. It returns once dismissed.
type AlertView interface {
	ShowAlert(message string)
}

// AlertPresenter shows at most one alert per tick and acknowledges it after
// the user dismissed it.
type AlertPresenter struct {
	queue AlertQueue
	ack   Acknowledger
	view  AlertView
}

func NewAlertPresenter(queue AlertQueue, ack Acknowledger, view AlertView) *AlertPresenter {
	return &AlertPresenter{queue: queue, ack: ack, view: view}
}

func (p *AlertPresenter) Tick() {
	if p == nil || p.queue == nil || p.view == nil {
		return
	}
	msg, ok := p.queue.Pop()
	if !ok {
		return
	}
	p.view.ShowAlert("Stream error: " + msg)
	if p.ack != nil {
		p.ack.Acknowledge()
	}
}
