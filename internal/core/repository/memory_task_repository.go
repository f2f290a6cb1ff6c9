package repository

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"taskbill/internal/core/model"
)

type inMemoryTaskRepository struct {
	tasks map[string]*model.Task
	mutex sync.RWMutex
}

func NewInMemoryTaskRepository() TaskRepository {
	return &inMemoryTaskRepository{
		tasks: make(map[string]*model.Task),
	}
}

func (r *inMemoryTaskRepository) Create(_ context.Context, task *model.Task) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.tasks[task.ID]; exists {
		return fmt.Errorf("%w: task with ID %s already exists", model.ErrConflict, task.ID)
	}
	c := *task
	r.tasks[task.ID] = &c
	return nil
}

func (r *inMemoryTaskRepository) Update(_ context.Context, task *model.Task) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	existing, exists := r.tasks[task.ID]
	if !exists || existing.ProjectID != task.ProjectID {
		return fmt.Errorf("%w: task %s", model.ErrNotFound, task.ID)
	}
	c := *task
	r.tasks[task.ID] = &c
	return nil
}

func (r *inMemoryTaskRepository) Delete(_ context.Context, id string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	delete(r.tasks, id)
	return nil
}

func (r *inMemoryTaskRepository) DeleteByProject(_ context.Context, projectID string) (int64, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var n int64
	for id, task := range r.tasks {
		if task.ProjectID == projectID {
			delete(r.tasks, id)
			n++
		}
	}
	return n, nil
}

func (r *inMemoryTaskRepository) FindByID(_ context.Context, id string) (*model.Task, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if task, exists := r.tasks[id]; exists {
		c := *task
		return &c, nil
	}
	return nil, nil
}

func (r *inMemoryTaskRepository) FindByProjects(_ context.Context, projectIDs []string) ([]*model.Task, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := []*model.Task{}
	for _, task := range r.tasks {
		if slices.Contains(projectIDs, task.ProjectID) {
			c := *task
			result = append(result, &c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}
