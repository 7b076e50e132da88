package config

import (
	"errors"
	"fmt"
)

// Validate checks a decoded manifest for structural problems.
func Validate(doc *File) error {
	if doc == nil {
		return errors.New("empty config document")
	}
	if doc.Defaults.KillAttempts < 0 {
		return errors.New("defaults.killAttempts: must not be negative")
	}
	if d := doc.Defaults.Interval; d.IsSet() && d.Duration <= 0 {
		return errors.New("defaults.interval: must be positive")
	}

	for name, task := range doc.Tasks {
		if err := validateTask(name, task); err != nil {
			return err
		}
	}
	return nil
}

func validateTask(name string, task *TaskSpec) error {
	if task == nil || task.Command == "" {
		return fmt.Errorf("%s: requires a command", taskField(name, "command"))
	}
	if task.Timeout.IsSet() && task.Check != nil {
		return fmt.Errorf("tasks.%s: timeout and check are mutually exclusive; a task is supervised by exactly one watcher", name)
	}
	if task.Timeout.IsSet() && task.Timeout.Duration < 0 {
		return fmt.Errorf("%s: must not be negative", taskField(name, "timeout"))
	}

	if task.Check == nil {
		return nil
	}
	c := task.Check
	switch c.sources() {
	case 0:
		return fmt.Errorf("%s: requires one of file, command, http or tcp", taskField(name, "check"))
	case 1:
	default:
		return fmt.Errorf("%s: multiple check sources configured; pick one", taskField(name, "check"))
	}
	if c.Interval.IsSet() && c.Interval.Duration <= 0 {
		return fmt.Errorf("%s: must be positive", taskField(name, "check.interval"))
	}
	if c.HTTP != nil && c.HTTP.URL == "" {
		return fmt.Errorf("%s: requires a url", taskField(name, "check.http"))
	}
	if c.TCP != nil && c.TCP.Address == "" {
		return fmt.Errorf("%s: requires an address", taskField(name, "check.tcp"))
	}
	return nil
}

func taskField(task, field string) string {
	return fmt.Sprintf("tasks.%s.%s", task, field)
}
