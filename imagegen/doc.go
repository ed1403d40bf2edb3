// Package imagegen 定义图像生成适配器的核心类型与响应解析逻辑。
//
// 上游多模态 API 的响应结构在不同模型后端之间并不稳定，
// 因此图像引用的提取实现为一组按固定顺序尝试的纯函数，
// 而不是单个庞大的条件分支。
package imagegen
