package registry

import (
	"github.com/flowhost/yandexcloud-nodes/pkg/nodes/compute"
	"github.com/flowhost/yandexcloud-nodes/pkg/nodes/containers"
	"github.com/flowhost/yandexcloud-nodes/pkg/nodes/functions"
	"github.com/flowhost/yandexcloud-nodes/pkg/nodes/gpt"
	"github.com/flowhost/yandexcloud-nodes/pkg/nodes/objectstorage"
	"github.com/flowhost/yandexcloud-nodes/pkg/nodes/postbox"
	"github.com/flowhost/yandexcloud-nodes/pkg/nodes/search"
	"github.com/flowhost/yandexcloud-nodes/pkg/nodes/translate"
	"github.com/flowhost/yandexcloud-nodes/pkg/nodes/vision"
	"github.com/flowhost/yandexcloud-nodes/pkg/nodes/ydb"
)

// RegisterDefaultNodes registers every built-in node factory.
func (r *Registry) RegisterDefaultNodes() {
	r.RegisterNode(functions.NewFunctionsNodeFactory())
	r.RegisterNode(containers.NewContainersNodeFactory())
	r.RegisterNode(objectstorage.NewStorageNodeFactory())
	r.RegisterNode(translate.NewTranslateNodeFactory())
	r.RegisterNode(gpt.NewGPTNodeFactory())
	r.RegisterNode(search.NewSearchNodeFactory())
	r.RegisterNode(compute.NewComputeNodeFactory())
	r.RegisterNode(ydb.NewYDBNodeFactory())
	r.RegisterNode(vision.NewVisionNodeFactory())
	r.RegisterNode(postbox.NewPostboxNodeFactory())
}
